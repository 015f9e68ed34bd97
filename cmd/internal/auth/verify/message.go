package verify

import (
	"bytes"
	"html/template"
	"net/url"
)

var messageTmpl = template.Must(template.New("verify").Parse(`<!doctype html>
<html>
<body>
<p>Hi,</p>
<p>Confirm that {{.Email}} is your address by opening the link below.</p>
<p><a href="{{.Link}}">Verify email</a></p>
<p>The link expires at {{.ExpiresAt}}. If you did not sign up you can ignore this message.</p>
</body>
</html>
`))

type messageData struct {
	Email     string
	Link      string
	ExpiresAt string
}

// verificationLink appends token to base as a query parameter, keeping any
// query base already has.
func verificationLink(base, tok string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("token", tok)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func renderMessage(d messageData) (string, error) {
	var buf bytes.Buffer
	if err := messageTmpl.Execute(&buf, d); err != nil {
		return "", err
	}
	return buf.String(), nil
}
