package utils

import (
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/google/uuid"

	"github.com/KB-iGOT/kb-support-agent-service-sub000/pkg/errors"
	"github.com/KB-iGOT/kb-support-agent-service-sub000/pkg/i18n"
)

var (
	mobileRe = regexp.MustCompile(`^[6-9]\d{9}$`)
	otpRe    = regexp.MustCompile(`^\d{4,6}$`)
	emailRe  = regexp.MustCompile(`^[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}$`)

	digitRunRe = regexp.MustCompile(`\d{4,}`)
	emailTokRe = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
)

func GenUUID() string {
	return uuid.NewString()
}

func MD5(s string) string {
	md5Ctx := md5.New()
	md5Ctx.Write([]byte(s))
	return hex.EncodeToString(md5Ctx.Sum(nil))
}

func SHA256(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// NormalizeMobile strips punctuation, spaces and the common Indian
// prefixes (+91, 91, leading 0) so user-entered numbers compare against
// the profile record.
func NormalizeMobile(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) == 12 && strings.HasPrefix(digits, "91") {
		digits = digits[2:]
	}
	if len(digits) == 11 && strings.HasPrefix(digits, "0") {
		digits = digits[1:]
	}
	return digits
}

// IsMobile reports whether s normalizes to a valid 10-digit Indian mobile
// number (starting 6-9).
func IsMobile(s string) bool {
	return mobileRe.MatchString(NormalizeMobile(s))
}

func IsOTP(s string) bool {
	return otpRe.MatchString(strings.TrimSpace(s))
}

func IsEmail(s string) bool {
	return emailRe.MatchString(strings.TrimSpace(s))
}

// ExtractDigitRun returns the first run of at least 4 digits in s with the
// given exact length, or "".
func ExtractDigitRun(s string, length int) string {
	for _, run := range digitRunRe.FindAllString(s, -1) {
		if len(run) == length {
			return run
		}
	}
	return ""
}

// ExtractEmail returns the first email-shaped token in s, or "".
func ExtractEmail(s string) string {
	return emailTokRe.FindString(s)
}

func TokenCount(s string) int {
	return len(strings.Fields(s))
}

func BindArgsWithGin(c *gin.Context, req interface{}) error {
	err := c.ShouldBindWith(req, binding.Default(c.Request.Method, c.ContentType()))
	if err != nil {
		return errors.New(fmt.Sprintf("Gin.ShouldBindWith.%s.%s", c.Request.Method, c.Request.URL.Path), i18n.ERROR_INVALIDARGUMENT, err).Code(http.StatusBadRequest).Kind(errors.KindValidation)
	}
	return nil
}
