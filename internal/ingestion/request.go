package ingestion

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Event is the triggering payload as callers send it. Deployments disagree on
// the name of the link field, so both spellings are accepted.
type Event struct {
	VideoID   string `json:"videoId"`
	Username  string `json:"username"`
	VideoLink string `json:"videoLink"`
	VideoURL  string `json:"video_url"`
	Email     string `json:"email"`
	FrameRate int    `json:"frame_rate"`
	Token     string `json:"token,omitempty"`
}

// Request converts the event into a pipeline request.
func (e Event) Request() Request {
	link := e.VideoLink
	if link == "" {
		link = e.VideoURL
	}
	return Request{
		ProcessID: strings.TrimSpace(e.VideoID),
		Username:  strings.TrimSpace(e.Username),
		Email:     strings.TrimSpace(e.Email),
		VideoLink: strings.TrimSpace(link),
		FrameRate: e.FrameRate,
		Token:     e.Token,
	}
}

// Request is one ingestion attempt. It has no identity of its own.
type Request struct {
	ProcessID string `json:"videoId" validate:"omitempty,max=128,excludesall=/\\"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	VideoLink string `json:"videoLink" validate:"required,http_url"`
	FrameRate int    `json:"frame_rate" validate:"gte=0,lte=240"`
	Token     string `json:"-"`
}

// owner is validated after identity resolution, whatever its source.
type owner struct {
	Username string `json:"username" validate:"required,max=128,excludesall=/\\"`
	Email    string `json:"email" validate:"required,email"`
}

// Response is the uniform envelope returned for every ingestion attempt.
type Response struct {
	StatusCode int `json:"statusCode"`
	Body       any `json:"body"`
}

// SuccessBody is the body of a 200 response. VideoID repeats ProcessID for
// callers that still read the older field name.
type SuccessBody struct {
	ProcessID  string `json:"processId"`
	VideoID    string `json:"videoId"`
	Username   string `json:"username"`
	StorageKey string `json:"storageKey"`
	VideoLink  string `json:"videoLink"`
	Email      string `json:"email"`
	FrameRate  int    `json:"frameRate"`
	Message    string `json:"message,omitempty"`
}

// ErrorBody is the body of a 400 response.
type ErrorBody struct {
	Error string `json:"error"`
}

func newValidate() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// describeValidation flattens validator errors into one readable line.
func describeValidation(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			parts = append(parts, fmt.Sprintf("%s is required", fe.Field()))
		case "http_url":
			parts = append(parts, fmt.Sprintf("%s must be an http(s) URL", fe.Field()))
		case "email":
			parts = append(parts, fmt.Sprintf("%s must be a valid email address", fe.Field()))
		default:
			parts = append(parts, fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag()))
		}
	}
	return errors.New(strings.Join(parts, "; "))
}
