// Package message provides the response envelope shared by the handlers.
package message

import (
	"encoding/json"
	"net/http"
)

// Response is the {message, data} envelope every successful call returns.
type Response struct {
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`

	status  int
	cookies []*http.Cookie
}

// New constructs a response with a 200 status.
func New(msg string, data any) Response {
	return Response{
		Message: msg,
		Data:    data,
		status:  http.StatusOK,
	}
}

// Created constructs a response with a 201 status.
func Created(msg string, data any) Response {
	return Response{
		Message: msg,
		Data:    data,
		status:  http.StatusCreated,
	}
}

// WithCookies returns a copy of the response that also sets the cookies.
func (r Response) WithCookies(cookies ...*http.Cookie) Response {
	r.cookies = append(append([]*http.Cookie(nil), r.cookies...), cookies...)
	return r
}

// Encode implements the web.Encoder interface.
func (r Response) Encode() ([]byte, string, error) {
	data, err := json.Marshal(r)
	return data, "application/json", err
}

// HTTPStatus implements the web package httpStatus interface.
func (r Response) HTTPStatus() int {
	if r.status == 0 {
		return http.StatusOK
	}

	return r.status
}

// Cookies implements the web.CookieSetter interface.
func (r Response) Cookies() []*http.Cookie {
	return r.cookies
}
