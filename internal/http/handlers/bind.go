package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// BindJSON binds the JSON body and, on tag validation failures, responds with
// the bare "field - message" array. Returns false when the request was
// already answered.
func BindJSON(ctx *gin.Context, out interface{}) bool {
	return handleBindError(ctx, ctx.ShouldBindJSON(out), out)
}

// Bind is the content-type aware variant for endpoints that accept multipart
// forms alongside JSON.
func Bind(ctx *gin.Context, out interface{}) bool {
	return handleBindError(ctx, ctx.ShouldBind(out), out)
}

func handleBindError(ctx *gin.Context, err error, out interface{}) bool {
	if err == nil {
		return true
	}

	var validatorErrors validator.ValidationErrors

	if errors.As(err, &validatorErrors) {
		RespondValidation(ctx, validationMessages(out, validatorErrors))
		return false
	}

	var syntaxError *json.SyntaxError

	if errors.As(err, &syntaxError) {
		RespondBadRequest(ctx, "Invalid request body", gin.H{"json": "invalid_json_syntax"})
		return false
	}

	var typeError *json.UnmarshalTypeError

	if errors.As(err, &typeError) {
		field := jsonFieldName(out, typeError.Field)

		RespondValidation(ctx, []string{field + " - must be of type " + typeError.Type.String()})
		return false
	}

	RespondBadRequest(ctx, "Invalid request body", gin.H{"reason": err.Error()})
	return false
}

func validationMessages(out interface{}, fieldErrors validator.ValidationErrors) []string {
	messages := make([]string, 0, len(fieldErrors))

	for _, fe := range fieldErrors {
		field := jsonFieldName(out, fe.Field())
		messages = append(messages, field+" - "+validationMessage(fe.Tag(), fe.Param()))
	}

	return messages
}

// jsonFieldName maps a struct field to its json (or form) tag name. Request
// DTOs here are flat, so a single-level lookup is enough.
func jsonFieldName(out interface{}, fieldName string) string {
	t := reflect.TypeOf(out)

	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	if t == nil || t.Kind() != reflect.Struct {
		return fieldName
	}

	sf, ok := t.FieldByName(fieldName)

	if !ok {
		return fieldName
	}

	for _, tagKey := range []string{"json", "form"} {
		tag := sf.Tag.Get(tagKey)
		name, _, _ := strings.Cut(tag, ",")

		if name != "" && name != "-" {
			return name
		}
	}

	return fieldName
}

func validationMessage(rule, param string) string {
	switch rule {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "url":
		return "must be a valid URL"
	case "uppercase":
		return "must be uppercase"
	case "gt":
		return "must be greater than " + param
	case "min":
		return "must be at least " + param + " characters"
	case "max":
		return "must be at most " + param
	case "oneof":
		return "must be one of " + strings.ReplaceAll(param, " ", ", ")
	default:
		if param != "" {
			return fmt.Sprintf("failed %s validation (%s)", rule, param)
		}
		return "failed " + rule + " validation"
	}
}
