package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog/log"

	"github.com/Karbon-fx/Fira-calculator/internal/calc"
	"github.com/Karbon-fx/Fira-calculator/internal/dto"
	"github.com/Karbon-fx/Fira-calculator/internal/upload"
)

type errorContent struct {
	status   int
	headline string
	message  string
}

var errorCatalog = map[string]errorContent{
	upload.CodeFileTooLarge: {
		status:   http.StatusRequestEntityTooLarge,
		headline: "File Size Exceeds Limit",
		message:  "Your file is too large. Please upload a FIRA less than 10MB.",
	},
	upload.CodeUnsupportedFileType: {
		status:   http.StatusUnsupportedMediaType,
		headline: "Unsupported File Type",
		message:  "This file format is not supported. Please upload a PDF, PNG, or JPEG version of your FIRA.",
	},
	upload.CodeFileReadError: {
		status:   http.StatusBadRequest,
		headline: "Upload Failed – File appears to be corrupted",
		message:  "We were unable to read the file. Kindly verify the file and attempt to upload a valid FIRA document.",
	},
	string(calc.KindExtractionIncomplete): {
		status:   http.StatusUnprocessableEntity,
		headline: "Unable to Extract FIRA Data",
		message:  "We couldn’t extract the required information from your document. Please try a clearer file or a different FIRA.",
	},
	string(calc.KindInvalidAmount): {
		status:   http.StatusUnprocessableEntity,
		headline: "Invalid Foreign Currency Amount",
		message:  "The foreign currency amount on the document is zero or unreadable, so no rate can be derived. Please check the FIRA and try again.",
	},
	string(calc.KindRateUnavailable): {
		status:   http.StatusBadGateway,
		headline: "Could Not Fetch FX Rate",
		message:  "We could not retrieve the exchange rate for the given date. The API may be down or data may not be available.",
	},
	string(calc.KindTimeout): {
		status:   http.StatusGatewayTimeout,
		headline: "Analysis Timed Out",
		message:  "The request timed out. The document may be too complex. Please try again with a clearer file.",
	},
	string(calc.KindUnknown): {
		status:   http.StatusInternalServerError,
		headline: "An Unexpected Error Occurred",
		message:  "Something went wrong during the analysis. Please try again or contact support if the problem persists.",
	},
}

// ErrorContent returns the user-facing headline and message for a code.
// Unrecognized codes get the file-read content.
func ErrorContent(code string) (headline, message string) {
	c, ok := errorCatalog[code]
	if !ok {
		c = errorCatalog[upload.CodeFileReadError]
	}
	return c.headline, c.message
}

// MapError turns any error raised by a handler into a status and body.
func MapError(err error) (int, dto.ErrorResponse) {
	var ue *upload.Error
	if errors.As(err, &ue) {
		return describe(ue.Code, ue.Reason)
	}

	var ce *calc.CalculationError
	if errors.As(err, &ce) || calc.KindOf(err) == calc.KindTimeout {
		kind := calc.KindOf(err)
		if kind == calc.KindUnknown {
			log.Error().Err(err).Msg("unexpected analysis failure")
		}
		return describe(string(kind), detailOf(ce))
	}

	return MapDBError(err)
}

func MapDBError(err error) (int, dto.ErrorResponse) {
	if errors.Is(err, pgx.ErrNoRows) {
		return http.StatusNotFound, dto.ErrorResponse{Error: "resource not found"}
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "22007", "22008": // invalid_datetime_format, datetime_field_overflow
			return http.StatusBadRequest, dto.ErrorResponse{
				Error:   "invalid date filter",
				Details: pgErr.Message,
			}
		case "23514": // check_violation
			return http.StatusBadRequest, dto.ErrorResponse{
				Error:   "constraint violation",
				Details: pgErr.Detail,
			}
		}
	}

	log.Error().Err(err).Msg("unhandled error")
	return http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"}
}

func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 && !c.Writer.Written() {
			err := c.Errors.Last().Err
			status, resp := MapError(err)
			c.JSON(status, resp)
		}
	}
}

func describe(code, details string) (int, dto.ErrorResponse) {
	c, ok := errorCatalog[code]
	if !ok {
		c = errorCatalog[string(calc.KindUnknown)]
		code = string(calc.KindUnknown)
	}
	return c.status, dto.ErrorResponse{
		Error:    code,
		Code:     code,
		Headline: c.headline,
		Message:  c.message,
		Details:  details,
	}
}

func detailOf(ce *calc.CalculationError) string {
	if ce == nil || ce.Kind == calc.KindUnknown {
		return ""
	}
	return ce.Message
}
