package file

import "errors"

var (
	ErrFileTooLarge    = errors.New("file exceeds the upload size limit")
	ErrUnsupportedType = errors.New("only JPEG, PNG and PDF files are accepted")
	ErrEmptyFile       = errors.New("file is empty")
	ErrUnknownFile     = errors.New("url does not point at an upload")
)
