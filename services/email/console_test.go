package emailsvc

import (
	"bytes"
	"fmt"
	"net/mail"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/trezcool/teas/core"
	logsvc "github.com/trezcool/teas/services/logger"
)

func TestMain(m *testing.M) {
	// rollbar's default client owns a transport goroutine for the process lifetime
	goleak.VerifyTestMain(m, goleak.IgnoreAnyFunction("github.com/rollbar/rollbar-go.NewAsyncTransport.func1"))
}

// syncBuffer guards a bytes.Buffer for concurrent writers.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func newConsoleService(t *testing.T) (*ConsoleService, *syncBuffer) {
	t.Helper()
	conf := core.NewTestConfig()
	conf.FrontendBaseURL = "https://teas.test"
	svc := NewConsoleService(conf, logsvc.NewRollbarLogger(zap.NewNop(), conf))
	out := new(syncBuffer)
	svc.out = out
	return svc, out
}

func welcome(i int) *core.EmailMessage {
	return &core.EmailMessage{
		To:           []mail.Address{{Name: fmt.Sprintf("User %d", i), Address: fmt.Sprintf("user%d@test.cd", i)}},
		Subject:      "Welcome",
		TemplateName: "welcome",
		TemplateData: map[string]string{
			"Name":       fmt.Sprintf("User %d", i),
			"Username":   fmt.Sprintf("user%d", i),
			"EmployeeID": fmt.Sprintf("EMP-%03d", i),
		},
	}
}

func TestConsoleService_SendMessages(t *testing.T) {
	svc, out := newConsoleService(t)

	const n = 10
	msgs := make([]*core.EmailMessage, 0, n)
	for i := 0; i < n; i++ {
		msgs = append(msgs, welcome(i))
	}
	svc.SendMessages(msgs...)
	svc.Wait()

	require.Len(t, svc.SentMessages(), n)
	got := out.String()
	assert.Equal(t, n, strings.Count(got, "Subject: [TEAS] Welcome\r\n"))
	for i := 0; i < n; i++ {
		assert.Contains(t, got, fmt.Sprintf("To: \"User %d\" <user%d@test.cd>", i, i))
		assert.Contains(t, got, fmt.Sprintf(`Your TEAS account "user%d" has been created for employee EMP-%03d.`, i, i))
	}
	assert.Contains(t, got, "https://teas.test/mark-attendance")
	assert.Contains(t, got, "Content-Type: multipart/alternative")
	assert.Contains(t, got, "Content-Type: text/html; charset=utf-8")

	svc.Reset()
	assert.Empty(t, svc.SentMessages())
}

func TestConsoleService_skipped(t *testing.T) {
	svc, out := newConsoleService(t)

	svc.SendMessages(
		&core.EmailMessage{Subject: "no recipients", BodyStr: "hello"},
		&core.EmailMessage{To: []mail.Address{{Address: "a@test.cd"}}, Subject: "no content"},
		&core.EmailMessage{To: []mail.Address{{Address: "a@test.cd"}}, Subject: "unknown template", TemplateName: "lol"},
	)
	svc.Wait()

	assert.Empty(t, svc.SentMessages())
	assert.Empty(t, out.String())
}

func TestConsoleService_attachments(t *testing.T) {
	svc, out := newConsoleService(t)

	msg := &core.EmailMessage{To: []mail.Address{{Address: "hr@test.cd"}}, Subject: "Report", BodyStr: "see attached"}
	require.NoError(t, msg.Attach(strings.NewReader("employee,date\n"), "report.csv", "text/csv"))
	svc.SendMessages(msg)
	svc.Wait()

	require.Len(t, svc.SentMessages(), 1)
	got := out.String()
	assert.Contains(t, got, "Content-Type: multipart/mixed")
	assert.Contains(t, got, "attachment; filename=report.csv")
	assert.Contains(t, got, "see attached")
}

func TestConsoleServiceMock_synchronous(t *testing.T) {
	conf := core.NewTestConfig()
	svc := NewConsoleServiceMock(conf, logsvc.NewRollbarLogger(zap.NewNop(), conf))

	svc.SendMessages(welcome(1))
	// no Wait: the mock renders inline
	sent := svc.SentMessages()
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0].TextContent, "Hi User 1,")
	assert.Contains(t, sent[0].HTMLContent, "<strong>user1</strong>")
}
