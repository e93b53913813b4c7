package reminder

import (
	"fmt"
	"strconv"

	"github.com/aknedenik/akne-denik/notification-service/internal/push"
)

func buildMessage(token, language string, day int) push.Message {
	var title, body string
	switch language {
	case "en":
		title = "Akné Deník"
		body = fmt.Sprintf("Day %d of your program is waiting. Take a minute to log your skin today.", day)
	default:
		title = "Akné Deník"
		body = fmt.Sprintf("Čeká na tebe den %d programu. Věnuj chvilku dnešnímu zápisu.", day)
	}
	return push.Message{
		To:    token,
		Title: title,
		Body:  body,
		Sound: "default",
		Data: map[string]string{
			"type": "daily_reminder",
			"day":  strconv.Itoa(day),
		},
	}
}
