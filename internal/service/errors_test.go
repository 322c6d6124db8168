package service

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorClassification(t *testing.T) {
	testCases := []struct {
		name       string
		err        error
		wantKind   ErrorKind
		wantCode   string
		wantStatus int
	}{
		{name: "validation", err: ErrInvalidName, wantKind: KindValidation, wantCode: "INVALID_NAME", wantStatus: http.StatusBadRequest},
		{name: "not found", err: ErrRoomNotFound, wantKind: KindNotFound, wantCode: "ROOM_NOT_FOUND", wantStatus: http.StatusNotFound},
		{name: "conflict", err: ErrCallAlreadyPending, wantKind: KindConflict, wantCode: "CALL_ALREADY_PENDING", wantStatus: http.StatusConflict},
		{name: "already exists", err: ErrAlreadyExists, wantKind: KindAlreadyExists, wantCode: "ALREADY_EXISTS", wantStatus: http.StatusConflict},
		{name: "wrapped", err: fmt.Errorf("join: %w", ErrRoomFull), wantKind: KindConflict, wantCode: "ROOM_FULL", wantStatus: http.StatusConflict},
		{name: "plain", err: errors.New("boom"), wantKind: KindInternal, wantCode: "INTERNAL", wantStatus: http.StatusInternalServerError},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.wantKind, KindOf(tc.err))
			assert.Equal(t, tc.wantCode, CodeOf(tc.err))
			assert.Equal(t, tc.wantStatus, HTTPStatus(tc.err))
		})
	}

	assert.Equal(t, "internal error", MessageOf(errors.New("db password leaked")))
	assert.Equal(t, ErrRoomFull.Message, MessageOf(fmt.Errorf("x: %w", ErrRoomFull)))
}
