package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStructuredError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *StructuredError
		want string
	}{
		{
			name: "without cause",
			err:  New(ErrCodeInvalidArgument, "bad size"),
			want: "[INVALID_ARGUMENT] bad size",
		},
		{
			name: "with cause",
			err:  Wrap(ErrCodeIO, "failed to read /etc/default/grub", fs.ErrNotExist),
			want: "[IO_ERROR] failed to read /etc/default/grub: file does not exist",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestCode(t *testing.T) {
	wrapped := fmt.Errorf("grub step: %w", Wrap(ErrCodeIO, "read failed", fs.ErrPermission))

	assert.Equal(t, ErrCodeIO, Code(wrapped))
	assert.True(t, IsCode(wrapped, ErrCodeIO))
	assert.False(t, IsCode(wrapped, ErrCodeInvalidArgument))
	assert.True(t, stderrors.Is(wrapped, fs.ErrPermission))

	assert.Equal(t, ErrorCode(""), Code(context.Canceled))
	assert.False(t, IsCode(nil, ErrCodeIO))
}
