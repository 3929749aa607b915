package pasetotoken

import "errors"

var (
	ErrConfig         = errors.New("paseto: bad configuration")
	ErrInvalidToken   = errors.New("paseto: invalid token")
	ErrWrongTokenType = errors.New("paseto: wrong token type")
)
