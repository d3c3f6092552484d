// Package service is the host API of the store. It wires the store, the
// query pipeline and the batch coordinator together and maps their errors
// to protocol status codes.
package service
