package mailer

import "fmt"

func OTPMessage(email, otp string) Message {
	return Message{
		To:      []string{email},
		Subject: "🔐 Your OTP Code",
		Body:    fmt.Sprintf("Your OTP for login is: %s", otp),
	}
}

func TaskAddedMessage(email, description, dueDate string) Message {
	return Message{
		To:      []string{email},
		Subject: "📝 Task Added",
		Body:    fmt.Sprintf("You've successfully added a new task:\n\n%s\nDue: %s", description, dueDate),
	}
}
