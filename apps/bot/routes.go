package bot

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/grafana/regexp"

	"botrouter/apps/bot/commands"
	"botrouter/apps/bot/middleware"
	"botrouter/internal/keyboards"
	"botrouter/pkg/tgrouter"
	"botrouter/pkg/tgrouter/callback"
)

var helloPattern = regexp.MustCompile(`(?i)^(hi|hello|salom|привет)([\s!.,]|$)`)

// Register wires the bot's routes. Order matters: the catch-all for unknown
// commands comes last.
func Register(r *tgrouter.Router[tgbotapi.Chattable], cmds commands.Commands, mw middleware.Middleware) error {
	r.With(mw.Stats(), mw.Logging(), mw.Language())
	r.SetErrorHandler(cmds.Failure)

	typing := mw.ChatAction(tgbotapi.ChatTyping)

	r.Handle(tgrouter.Command("start"), cmds.Start, typing)
	r.Handle(tgrouter.Command("help"), cmds.Help)
	r.Handle(tgrouter.Command("lang"), cmds.ChooseLanguage)
	r.Handle(tgrouter.Command("stats"), cmds.Stats, mw.AdminOnly())
	r.Handle(tgrouter.Text.Regex(helloPattern), cmds.Hello, typing)

	if _, err := r.HandleCallback(callback.Prefix(keyboards.LangQuery), tgrouter.MatchTypePrefix, cmds.ChangeLanguage); err != nil {
		return err
	}
	if _, err := r.HandleText("/", tgrouter.MatchTypePrefix, cmds.Unknown); err != nil {
		return err
	}
	return nil
}
