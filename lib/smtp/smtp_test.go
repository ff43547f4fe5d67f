package smtp

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSendEMail(t *testing.T) {
	t.Run(`not configured`, func(t *testing.T) {
		err := New("", "", "", "", true).SendEMail("a@org.sa", "subject", "body")
		require.ErrorIs(t, err, ErrNotConfigured)
	})
	t.Run(`message headers`, func(t *testing.T) {
		msg := buildMessage("portal@org.sa", "a@org.sa", "تذكير", "نص")
		require.True(t, strings.HasPrefix(msg, "From: portal@org.sa\r\nTo: a@org.sa\r\nSubject: تذكير\r\n"))
		require.Contains(t, msg, "charset=\"UTF-8\"")
		require.True(t, strings.HasSuffix(msg, "\r\n\r\nنص\r\n"))
	})
}
