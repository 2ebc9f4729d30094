// Package service provides typed façades over the camera service's
// JSON-RPC methods.
//
// Each façade validates parameters locally, sends one request through an
// rpc.Caller and maps JSON-RPC error codes to domain errors such as
// ErrCameraNotFound. The method catalog in methods.go binds every method
// name to its params and result types.
package service
