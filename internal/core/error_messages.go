package core

// error_messages.go maps technical errors to messages a listener of the
// playlist app can act on. Each message has a code that support can look up:
//
//	DB001   duplicate key              "duplicate key"
//	DB002   unique constraint          "unique constraint", "violates unique"
//	DB003   foreign key                "foreign key constraint", "violates foreign key"
//	DB004   connection refused         "connection refused"
//	DB005   connection reset           "connection reset"
//	DB006   timeout                    "timeout"
//	DB007   deadlock / busy            "deadlock", "database is locked"
//	VAL001  bad artist name            "invalid artist name"
//	VAL002  missing field              "missing required field"
//	VAL003  bad playlist id            "invalid playlist item id"
//	VAL004  bad JSON body              "invalid request body"
//	FILE001 too large                  "file too large"
//	FILE002 not parseable              "invalid csv"
//	FILE003 no file                    "no file provided"
//	FILE004 empty                      "empty file"
//	FILE005 wrong type                 "unsupported file type"
//	VAL000  other rejected input       any other *ValidationError
//	CAT001  artist missing             ErrArtistNotFound
//	CAT002  song missing               ErrSongNotFound
//	CAT003  playlist item missing      ErrPlaylistItemNotFound
//	UPL001  slots exhausted            ErrTooManyUploads
//	UPL002  cancelled                  context.Canceled
//	UPL003  deadline                   context.DeadlineExceeded
//	RATE001 throttled                  "rate limit"
//	ERR000  anything else
//
// Classification runs in three steps and the first hit wins:
//
//  1. sentinel errors (not found, upload slots, context) via errors.Is;
//  2. *ValidationError, matched on the fixed phrase its Reason starts with;
//  3. case-insensitive substring patterns on the remaining error text, after
//     quoted values are removed. Artist and song names are always quoted
//     with %q, so a name such as "Timeout" cannot select a message.

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

type sentinelMessage struct {
	err error
	msg UserMessage
}

var sentinelMessages = []sentinelMessage{
	// Catalog and playlist lookups
	{ErrArtistNotFound, UserMessage{"Artist not found", "Upload the artist's songs first", "CAT001"}},
	{ErrSongNotFound, UserMessage{"Song not found in the catalog", "Upload a CSV containing the song first", "CAT002"}},
	{ErrPlaylistItemNotFound, UserMessage{"Playlist item not found", "Refresh the playlist", "CAT003"}},

	// Upload throttling
	{ErrTooManyUploads, UserMessage{"System is busy processing other uploads", "Please wait a moment and try again", "UPL001"}},
	{context.Canceled, UserMessage{"Request was cancelled", "Please try again", "UPL002"}},
	{context.DeadlineExceeded, UserMessage{"Request timed out", "Try a smaller file or try again later", "UPL003"}},
}

// validationPatterns are matched as prefixes of ValidationError.Reason.
var validationPatterns = []errorPattern{
	{"invalid artist name", UserMessage{"Invalid artist name", "Name the file after the artist, e.g. Artist Name.csv", "VAL001"}},
	{"missing required field", UserMessage{"A required field is empty", "Provide song, artist and user name", "VAL002"}},
	{"invalid playlist item id", UserMessage{"Invalid playlist item id", "Use the numeric id returned by the playlist", "VAL003"}},
	{"invalid request body", UserMessage{"The request body could not be read", "Send a JSON object", "VAL004"}},

	// Upload files
	{"file too large", UserMessage{"File exceeds the maximum upload size", "Split the file into smaller files", "FILE001"}},
	{"invalid csv", UserMessage{"File is not a valid song CSV", "Use two columns: song_name,song_link", "FILE002"}},
	{"no file provided", UserMessage{"No file was selected", "Select a CSV file in the artistFile field", "FILE003"}},
	{"empty file", UserMessage{"The uploaded file is empty", "Upload a CSV file with song rows", "FILE004"}},
	{"unsupported file type", UserMessage{"Only .csv files are allowed", "Save the file as CSV and upload again", "FILE005"}},
}

var validationDefault = UserMessage{"The request was rejected", "Check the input and try again", "VAL000"}

// errorPatterns classify driver and transport errors by their text.
var errorPatterns = []errorPattern{
	// Database constraints
	{"duplicate key", UserMessage{"A record with this name already exists", "Refresh and try again", "DB001"}},
	{"unique constraint", UserMessage{"This value must be unique but already exists", "Check for duplicate songs in your CSV", "DB002"}},
	{"violates unique", UserMessage{"A duplicate value was found", "Check for duplicate songs in your CSV", "DB002"}},
	{"foreign key constraint", UserMessage{"Referenced record does not exist", "Upload the artist's songs first", "DB003"}},
	{"violates foreign key", UserMessage{"Referenced record does not exist", "Upload the artist's songs first", "DB003"}},

	// Database connectivity
	{"connection refused", UserMessage{"Unable to connect to database", "Please try again in a few moments", "DB004"}},
	{"connection reset", UserMessage{"Database connection was interrupted", "Please try again", "DB005"}},
	{"timeout", UserMessage{"Operation timed out", "Please try again later", "DB006"}},
	{"deadlock", UserMessage{"Database was busy with conflicting operations", "Please try again", "DB007"}},
	{"database is locked", UserMessage{"Database was busy with conflicting operations", "Please try again", "DB007"}},

	{"rate limit", UserMessage{"Too many requests", "Please wait a moment before trying again", "RATE001"}},
}

// quoted matches a Go-quoted string as produced by %q.
var quoted = regexp.MustCompile(`"(?:[^"\\]|\\.)*"`)

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message. Unknown
// errors map to the generic ERR000 message.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, sm := range sentinelMessages {
		if errors.Is(err, sm.err) {
			return sm.msg
		}
	}

	var ve *ValidationError
	if errors.As(err, &ve) {
		reason := strings.ToLower(ve.Reason)
		for _, ep := range validationPatterns {
			if strings.HasPrefix(reason, ep.pattern) {
				return ep.msg
			}
		}
		return validationDefault
	}

	// Drop quoted values before matching; they carry user input.
	errStr := strings.ToLower(quoted.ReplaceAllString(err.Error(), `""`))

	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError renders "Message (Code: XXX). Action" for plain-text output.
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}
