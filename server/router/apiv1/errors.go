package apiv1

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	errcode "github.com/hearthbot/remindd/internal/errors"
)

// replyError translates a service error into an HTTP status plus the single
// user-visible reply line the host relays into chat.
func replyError(err error) error {
	var svcErr *errcode.ServiceError
	if !errors.As(err, &svcErr) {
		return echo.NewHTTPError(http.StatusInternalServerError, "❌ Something went wrong").SetInternal(err)
	}

	status := http.StatusBadRequest
	reply := "❌ " + svcErr.Message
	switch svcErr.Code {
	case errcode.CodeNotInFuture:
		reply = "❌ Time must be in the future"
	case errcode.CodeUnparseable:
		reason := strings.TrimPrefix(svcErr.Message, "could not parse time: ")
		reply = "❌ Could not parse time: " + reason
	case errcode.CodeInvalidTimezone:
		reply = "❌ Invalid timezone"
	case errcode.CodeQuotaExceeded:
		status = http.StatusConflict
		reply = "❌ You have reached the " + svcErr.Message
	case errcode.CodeRateLimited:
		status = http.StatusTooManyRequests
		reply = fmt.Sprintf("⏱ Slow down (3 per minute), retry in %s", svcErr.RetryAfter.Round(time.Second))
	case errcode.CodeNotFound:
		status = http.StatusNotFound
	case errcode.CodeStoreFailure:
		status = http.StatusInternalServerError
		reply = "❌ Something went wrong"
	}

	httpErr := echo.NewHTTPError(status, reply)
	httpErr.SetInternal(err)
	return httpErr
}
