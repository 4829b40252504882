package user

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMakeVerifyToken(t *testing.T) {
	secretKey = []byte("secret")
	passwordResetTimeoutDelta = 3 * 24 * time.Hour

	now := time.Now()
	usr := User{
		ID:             "11111111-1111-1111-1111-111111111111",
		Name:           "T",
		RegistrationID: "ABC12345",
		Role:           RoleTeacher,
		Email:          "t@test.test",
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	require.NoError(t, usr.SetPassword("pwd"))

	validToken := makeToken(usr)

	// generate an expired token
	dayLate := passwordResetTimeoutDelta + (24 * time.Hour)
	nowFunc = func() time.Time { return time.Now().Add(-dayLate) }
	expiredToken := makeToken(usr)
	nowFunc = time.Now // reset

	tests := []struct {
		name    string
		usr     User
		token   string
		wantErr error
	}{
		{name: "no token", usr: usr, wantErr: errInvalidToken},
		{name: "invalid parts len", usr: usr, token: "lmaooolol", wantErr: errInvalidToken},
		{name: "invalid base32", usr: usr, token: "hahaha-sigsig-sig", wantErr: errInvalidToken},
		{name: "invalid timestamp", usr: usr, token: "NRXWY-sigsig-sig", wantErr: errInvalidToken},
		{name: "invalid token", usr: usr, token: "HE4TS-sigsig-sig", wantErr: errInvalidToken},
		{name: "expired token", usr: usr, token: expiredToken, wantErr: errTokenExpired},
		{name: "valid token", usr: usr, token: validToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, verifyToken(tt.usr, tt.token))
			} else {
				assert.NoError(t, verifyToken(tt.usr, tt.token))
			}
		})
	}
}

func TestEncodeDecodeUID(t *testing.T) {
	usr := User{ID: "22222222-2222-2222-2222-222222222222"}

	uid := EncodeUID(usr)
	id, err := decodeUID(uid)
	require.NoError(t, err)
	assert.Equal(t, usr.ID, id)

	_, err = decodeUID("%%%not-base64%%%")
	assert.Error(t, err)
}
