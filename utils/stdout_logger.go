package utils

import (
	"github.com/fatih/color"

	"tutor-chat/work-flows/models"
)

func PrintSuccess(message string) {
	green := color.New(color.FgGreen, color.Bold)
	green.Printf("✓ %s\n", message)
}

func PrintError(message string) {
	red := color.New(color.FgRed, color.Bold)
	red.Printf("✗ %s\n", message)
}

func PrintInfo(message string) {
	yellow := color.New(color.FgYellow)
	yellow.Printf("ℹ %s\n", message)
}

// PrintMessage prints a chat line prefixed with the speaker's role.
func PrintMessage(role models.MessageRole, content string) {
	switch role {
	case models.MessageRoleUser:
		color.New(color.FgGreen, color.Bold).Print("you ▸ ")
	case models.MessageRoleAssistant:
		color.New(color.FgCyan, color.Bold).Print("tutor ▸ ")
	default:
		color.New(color.FgWhite).Printf("%s ▸ ", role)
	}
	color.New(color.FgWhite).Println(content)
}
