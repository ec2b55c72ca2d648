package gateway

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"tutor-chat/utils"
	"tutor-chat/work-flows/managers"
	"tutor-chat/work-flows/models"
)

// Translator renders assistant replies in the learner's language.
type Translator interface {
	Translate(text string) (string, error)
	TargetLanguage() string
}

// ChatREPL drives a ChatSessionManager from line-oriented input.
type ChatREPL struct {
	manager    *managers.ChatSessionManager
	translator Translator
	exportDir  string
	in         io.Reader
}

func NewChatREPL(manager *managers.ChatSessionManager, translator Translator, exportDir string, in io.Reader) *ChatREPL {
	return &ChatREPL{
		manager:    manager,
		translator: translator,
		exportDir:  exportDir,
		in:         in,
	}
}

// Run reads lines until EOF, /quit or ctx is cancelled.
func (r *ChatREPL) Run(ctx context.Context) error {
	r.printWelcome()

	scanner := bufio.NewScanner(r.in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for {
		fmt.Print("\n➤ ")
		if !scanner.Scan() {
			break
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if quit := r.HandleLine(ctx, scanner.Text()); quit {
			return nil
		}
	}
	return scanner.Err()
}

// HandleLine executes one REPL line and reports whether the session should end.
func (r *ChatREPL) HandleLine(ctx context.Context, line string) bool {
	line, exportJSON := utils.ParseExportFlag(strings.TrimSpace(line))
	if line == "" {
		return false
	}
	if exportJSON {
		defer r.export()
	}
	if !strings.HasPrefix(line, "/") {
		r.send(ctx, line)
		return false
	}

	command, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch strings.ToLower(command) {
	case "/quit", "/exit":
		r.printGoodbye()
		return true
	case "/help":
		r.showHelp()
	case "/history":
		r.showHistory()
	case "/switch":
		if arg == "" {
			utils.PrintError("Usage: /switch <key>")
			return false
		}
		if err := r.manager.SwitchSession(arg); err != nil {
			utils.PrintError(err.Error())
			return false
		}
		utils.PrintSuccess(fmt.Sprintf("Switched to %q (%d messages)", arg, len(r.manager.Messages())))
		r.showMessages()
	case "/clear":
		r.manager.Clear()
		utils.PrintSuccess("Conversation cleared")
	case "/delete":
		key := arg
		if key == "" {
			key = r.manager.Key()
		}
		if err := r.manager.DeleteSession(key); err != nil {
			utils.PrintError(err.Error())
			return false
		}
		utils.PrintSuccess(fmt.Sprintf("Deleted %q", key))
	case "/translate":
		r.translateLastReply()
	case "/export":
		r.export()
	default:
		utils.PrintError(fmt.Sprintf("Unknown command %s. Type /help for commands.", command))
	}
	return false
}

func (r *ChatREPL) send(ctx context.Context, text string) {
	utils.PrintInfo("Waiting for the tutor...")
	r.manager.Send(ctx, text)

	if reply, ok := r.manager.LastReply(); ok {
		utils.PrintMessage(models.MessageRoleAssistant, reply.Content)
	}
}

func (r *ChatREPL) translateLastReply() {
	if r.translator == nil {
		utils.PrintError("Translation is not configured")
		return
	}
	reply, ok := r.manager.LastReply()
	if !ok {
		utils.PrintInfo("No tutor reply to translate yet")
		return
	}

	translated, err := r.translator.Translate(reply.Content)
	if err != nil {
		utils.PrintError(err.Error())
		return
	}
	color.New(color.FgMagenta).Printf("(%s) %s\n", r.translator.TargetLanguage(), translated)
}

func (r *ChatREPL) export() {
	path, err := utils.ExportConversation(r.exportDir, r.manager.Key(), r.manager.Title(), r.manager.Messages())
	if err != nil {
		utils.PrintError(err.Error())
		return
	}
	utils.PrintSuccess(fmt.Sprintf("Conversation exported to %s", path))
}

func (r *ChatREPL) printWelcome() {
	cyan := color.New(color.FgCyan, color.Bold)
	white := color.New(color.FgWhite)

	cyan.Printf("📚 %s\n", r.manager.Title())
	white.Printf("Conversation %q. Type /help for commands.\n", r.manager.Key())
	r.showMessages()
}

func (r *ChatREPL) printGoodbye() {
	green := color.New(color.FgGreen, color.Bold)
	cyan := color.New(color.FgCyan)

	green.Println("\n👋 See you next time!")
	cyan.Printf("📈 Messages in this conversation: %d\n", len(r.manager.Messages()))
	if id := r.manager.SessionID(); id != "" {
		cyan.Printf("🔑 Session ID: %s\n", id)
	}
}

func (r *ChatREPL) showMessages() {
	for _, msg := range r.manager.Messages() {
		if msg.Role == models.MessageRoleSystem {
			continue
		}
		utils.PrintMessage(msg.Role, msg.Content)
	}
}

func (r *ChatREPL) showHistory() {
	yellow := color.New(color.FgYellow, color.Bold)
	green := color.New(color.FgGreen)
	white := color.New(color.FgWhite)

	entries := r.manager.History()
	yellow.Println("\n📜 Conversations")
	if len(entries) == 0 {
		white.Println("No conversations yet.")
		return
	}

	active := r.manager.Key()
	for _, entry := range entries {
		marker := " "
		if entry.Key == active {
			marker = "*"
		}
		green.Printf("%s %-24s ", marker, entry.Key)
		white.Printf("%s (%s)\n", entry.Title, entry.LastTouched.Local().Format("2006-01-02 15:04"))
	}
}

func (r *ChatREPL) showHelp() {
	yellow := color.New(color.FgYellow, color.Bold)
	white := color.New(color.FgWhite)

	yellow.Println("\n📖 Available Commands:")
	white.Println("• /history - List saved conversations")
	white.Println("• /switch <key> - Open another conversation")
	white.Println("• /clear - Empty the current conversation")
	white.Println("• /delete [key] - Remove a conversation from storage")
	white.Println("• /translate - Translate the last tutor reply")
	white.Println("• /export - Write the conversation to a JSON file")
	white.Println("• /quit - Leave the chat")
	white.Println("• Any other text - Ask the tutor")
	white.Println("• Append --o json to any line to export the conversation afterwards")
}
