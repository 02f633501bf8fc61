package notification

import (
	"bytes"
	"html/template"
	"time"
)

const otpSubject = "Todo Team OTP Verification"

var otpTemplate = template.Must(template.New("otp").Parse(`<html>
    <body style="font-family: Arial, sans-serif; background-color: #f4f4f4; padding: 20px;">
        <div style="max-width: 600px; margin: auto; background-color: #fff; padding: 20px; border-radius: 10px;">
            <h2 style="color: #004ac2;">{{.Title}}</h2>
            <p style="font-size: 16px;">Use the following OTP to complete your action. This code is valid for {{.Minutes}} minutes:</p>
            <h1 style="font-size: 32px; color: #004ac2; letter-spacing: 4px;">{{.Code}}</h1>
            <p style="font-size: 14px; color: #666;">If you did not request this, please ignore this email.</p>
            <p style="font-size: 14px; color: #666;">-- Todo Support Team</p>
        </div>
    </body>
</html>`))

// OTPMessage renders the verification email carrying code.
func OTPMessage(kind, to, title, code string, ttl time.Duration) (Message, error) {
	var buf bytes.Buffer
	err := otpTemplate.Execute(&buf, struct {
		Title   string
		Code    string
		Minutes int
	}{Title: title, Code: code, Minutes: int(ttl / time.Minute)})
	if err != nil {
		return Message{}, err
	}
	return Message{Kind: kind, Destination: to, Subject: otpSubject, Body: buf.String()}, nil
}
