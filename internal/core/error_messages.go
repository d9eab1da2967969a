package core

// error_messages.go maps conversion errors to messages an API client can act
// on. Codes are stable and grouped by prefix:
//
//	PARSE  malformed field text or quoting (strict policy)
//	SCH    column schema problems
//	OPT    parse option problems
//	FILE   input size and content
//	JOB    conversion slots, cancellation and timeouts
//	DB     Postgres sink failures
//	ERR000 anything else; check the server log for the request id

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/JonMunkholm/csvcast/internal/column"
	"github.com/JonMunkholm/csvcast/internal/field"
	"github.com/JonMunkholm/csvcast/internal/locate"
)

// UserMessage is the client-facing description of an error.
type UserMessage struct {
	Message string
	Action  string
	Code    string

	// Detail names the offending row and column when known.
	Detail string
}

type sentinelMessage struct {
	target error
	msg    UserMessage
}

// sentinelMessages are matched with errors.Is, in order.
var sentinelMessages = []sentinelMessage{
	{field.ErrInvalidDigit, UserMessage{
		Message: "A numeric field contains an invalid character",
		Action:  "Check the decimal and thousands separators, or convert with the best-effort policy",
		Code:    "PARSE001",
	}},
	{field.ErrEmptyField, UserMessage{
		Message: "A field is empty",
		Action:  "Fill the field or convert with the best-effort policy, which reads empty fields as zero",
		Code:    "PARSE002",
	}},
	{field.ErrExponentOverflow, UserMessage{
		Message: "A number's exponent is out of range",
		Action:  "Use a wider float kind or fix the exponent",
		Code:    "PARSE003",
	}},
	{field.ErrInvalidDate, UserMessage{
		Message: "A date field could not be read",
		Action:  "Use YYYY-MM-DD, MM/DD/YYYY or Jan 2, 2006, and set dayfirst for DD/MM/YYYY",
		Code:    "PARSE004",
	}},
	{field.ErrInvalidBoolean, UserMessage{
		Message: "A boolean field matches neither the true nor the false values",
		Action:  "Add the literal to the configured true or false values",
		Code:    "PARSE005",
	}},
	{locate.ErrUnterminatedQuote, UserMessage{
		Message: "A quoted field is never closed",
		Action:  "Close the quote or escape it by doubling",
		Code:    "PARSE006",
	}},
	{locate.ErrBareQuote, UserMessage{
		Message: "A quote appears inside an unquoted field",
		Action:  "Quote the whole field and double the inner quote",
		Code:    "PARSE007",
	}},

	{ErrEmptySchema, UserMessage{
		Message: "No columns were given",
		Action:  "Pass columns as name:kind pairs, for example id:int64,amount:float64",
		Code:    "SCH001",
	}},
	{field.ErrUnknownKind, UserMessage{
		Message: "Unknown column kind",
		Action:  "Use one of the kinds listed by GET /api/options",
		Code:    "SCH002",
	}},
	{column.ErrDuplicateColumn, UserMessage{
		Message: "Two columns share a name",
		Action:  "Give every column a distinct name",
		Code:    "SCH003",
	}},

	{field.ErrDelimiterCollision, UserMessage{
		Message: "Two structural characters are the same",
		Action:  "Delimiter, terminator, quote, decimal and thousands must all differ",
		Code:    "OPT001",
	}},
	{field.ErrMissingDelimiter, UserMessage{
		Message: "No delimiter was set",
		Action:  "Set the delimiter",
		Code:    "OPT002",
	}},
	{field.ErrMissingDecimal, UserMessage{
		Message: "No decimal point was set",
		Action:  "Set the decimal point",
		Code:    "OPT002",
	}},
	{field.ErrInvalidPolicy, UserMessage{
		Message: "Unknown parse policy",
		Action:  "Use best-effort or strict",
		Code:    "OPT003",
	}},

	{ErrInputTooLarge, UserMessage{
		Message: "The input exceeds the size limit",
		Action:  "Split the file into smaller parts",
		Code:    "FILE001",
	}},
	{ErrEmptyInput, UserMessage{
		Message: "The input is empty",
		Action:  "Send the file contents as the request body",
		Code:    "FILE002",
	}},
	{ErrNoRows, UserMessage{
		Message: "The input has no data rows",
		Action:  "Check the header flag and the terminator",
		Code:    "FILE003",
	}},

	{ErrTooManyJobs, UserMessage{
		Message: "The server is busy with other conversions",
		Action:  "Please wait a moment and try again",
		Code:    "JOB001",
	}},
	{context.Canceled, UserMessage{
		Message: "The request was cancelled",
		Action:  "Please try again",
		Code:    "JOB002",
	}},
	{context.DeadlineExceeded, UserMessage{
		Message: "The conversion timed out",
		Action:  "Convert a smaller file or use the parallel driver",
		Code:    "JOB003",
	}},
}

// databaseMessages are matched against the lower-cased error text of
// failures coming back from Postgres.
var databaseMessages = []struct {
	pattern string
	msg     UserMessage
}{
	{"does not exist", UserMessage{
		Message: "The target table or column does not exist",
		Action:  "Create the table with columns matching the schema names",
		Code:    "DB001",
	}},
	{"connection refused", UserMessage{
		Message: "Unable to connect to the database",
		Action:  "Please try again in a few moments",
		Code:    "DB002",
	}},
	{"duplicate key", UserMessage{
		Message: "A loaded row duplicates an existing key",
		Action:  "Remove duplicate rows before loading",
		Code:    "DB003",
	}},
	{"invalid input syntax", UserMessage{
		Message: "A column type does not match the table",
		Action:  "Align the column kinds with the table definition",
		Code:    "DB004",
	}},
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support with the request id",
	Code:    "ERR000",
}

// MapError converts err to a UserMessage. Typed errors are recognized with
// errors.Is; database errors by their text. Unrecognized errors map to
// ERR000.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	msg, ok := lookupMessage(err)
	if !ok {
		return defaultMessage
	}

	var fe *FieldError
	if errors.As(err, &fe) {
		msg.Detail = fmt.Sprintf("row %d, column %q", fe.Row, fe.Name)
	}
	var re *locate.RecordError
	if errors.As(err, &re) {
		msg.Detail = fmt.Sprintf("record %d, field %d", re.Line, re.Column)
	}
	return msg
}

func lookupMessage(err error) (UserMessage, bool) {
	for _, sm := range sentinelMessages {
		if errors.Is(err, sm.target) {
			return sm.msg, true
		}
	}

	text := strings.ToLower(err.Error())
	for _, dm := range databaseMessages {
		if strings.Contains(text, dm.pattern) {
			return dm.msg, true
		}
	}
	return UserMessage{}, false
}

// IsUserFacing reports whether err maps to a specific message rather than
// the ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	_, ok := lookupMessage(err)
	return ok
}

// FormatUserError renders err as "Message (Code: X). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}
