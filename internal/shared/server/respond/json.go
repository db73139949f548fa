package respond

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// JSON writes a JSON response with the given status.
func JSON(c *gin.Context, status int, payload interface{}) {
	c.JSON(status, payload)
}

// PDF writes an in-memory PDF. inline selects preview rather than download.
func PDF(c *gin.Context, fileName string, data []byte, inline bool) {
	c.Header("Content-Disposition", ContentDisposition(fileName, inline))
	c.Data(http.StatusOK, "application/pdf", data)
}

// StreamPDF copies a stored PDF to the client as an attachment. size may be
// zero when unknown. The returned error is from the copy; headers are already
// sent by then.
func StreamPDF(c *gin.Context, fileName string, size int64, body io.Reader) error {
	c.Header("Content-Type", "application/pdf")
	c.Header("Content-Disposition", ContentDisposition(fileName, false))
	if size > 0 {
		c.Header("Content-Length", strconv.FormatInt(size, 10))
	}
	c.Status(http.StatusOK)
	_, err := io.Copy(c.Writer, body)
	return err
}

// ContentDisposition builds the header value, adding an RFC 5987 filename*
// parameter when the name is not plain ASCII.
func ContentDisposition(fileName string, inline bool) string {
	kind := "attachment"
	if inline {
		kind = "inline"
	}
	name := strings.NewReplacer(`"`, "", "\\", "", "\r", "", "\n", "").Replace(fileName)
	if name == "" {
		return kind
	}
	if isASCII(name) {
		return fmt.Sprintf(`%s; filename="%s"`, kind, name)
	}
	return fmt.Sprintf(`%s; filename="%s"; filename*=UTF-8''%s`, kind, asciiFallback(name), url.PathEscape(name))
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}

func asciiFallback(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r < 0x80 {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}
