package endpoints

import (
	"errors"

	"devicelab/internal/adb"
	"devicelab/internal/aggregate"
)

const (
	API_SUCCESS = iota + 505000 // 505000
	API_FAILURE                 // 505001 - Generic API failure
)

const (
	INVALID_REQUEST_BODY = iota + 201 // 201 - Error parsing request body
	INVALID_IP_ADDRESS                // 202 - Device IP is not a valid IPv4/IPv6 address
	DEVICE_UNREACHABLE                // 203 - adb could not connect to or command the device
	INVALID_WINDOW_SIZE               // 204 - Chart window size misconfigured
	REQUEST_CANCELLED                 // 205 - Request was cancelled by client or server timeout
	DATA_INTEGRITY                    // 206 - Stored measurement failed to load cleanly
)

var (
	ErrInvalidRequestBody = errors.New("invalid request body format or missing fields")
	ErrRequestCancelled   = errors.New("request cancelled by client or server timeout")
	ErrDataIntegrity      = errors.New("stored measurements could not be read")
)

func GetErrorCode(err error) int {
	if err == nil {
		return API_SUCCESS
	}

	switch {
	case errors.Is(err, ErrInvalidRequestBody):
		return INVALID_REQUEST_BODY
	case errors.Is(err, adb.ErrInvalidIP):
		return INVALID_IP_ADDRESS
	case errors.Is(err, adb.ErrConnectFailed), errors.Is(err, adb.ErrCommandFailed),
		errors.Is(err, adb.ErrProcessNotSeen):
		return DEVICE_UNREACHABLE
	case errors.Is(err, aggregate.ErrWindowSize):
		return INVALID_WINDOW_SIZE
	case errors.Is(err, ErrRequestCancelled):
		return REQUEST_CANCELLED
	case errors.Is(err, ErrDataIntegrity):
		return DATA_INTEGRITY
	default:
		return API_FAILURE // Default for any unhandled error
	}
}
