package bot

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"horse.fit/polyglot/internal/i18n"
	"horse.fit/polyglot/internal/language"
	"horse.fit/polyglot/internal/platform"
)

// statsWindowDays is the reporting window of the /stats command.
const statsWindowDays = 7

var commandPattern = regexp.MustCompile(`^/(\w+)(?:@\w+)?(?:\s+(.*))?$`)

// parseCommand splits "/cmd@botname args" into the command name and its
// argument string.
func parseCommand(text string) (string, string) {
	m := commandPattern.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return "", ""
	}
	return strings.ToLower(m[1]), strings.TrimSpace(m[2])
}

func (r *Router) handleCommand(ctx context.Context, msg *platform.Message) {
	command, args := parseCommand(msg.Text)
	if command == "" {
		return
	}
	replyLang := r.replyLanguage(ctx, msg.From)

	switch command {
	case "start":
		r.reply(ctx, msg, i18n.T(replyLang, "start"))
	case "help":
		r.reply(ctx, msg, i18n.T(replyLang, "help"))
	case "set_my_lang":
		r.cmdSetMyLang(ctx, msg, args, replyLang)
	case "reset":
		r.cmdReset(ctx, msg, replyLang)
	case "privacy":
		r.cmdPrivacy(ctx, msg, replyLang)
	case "provider":
		r.reply(ctx, msg, i18n.T(replyLang, "provider_info", r.translator.Primary()))
	case "my_channels":
		r.cmdMyChannels(ctx, msg, replyLang)
	case "set_channel_langs":
		r.cmdSetChannelLangs(ctx, msg, args, replyLang)
	case "toggle_autotranslate":
		r.cmdToggleAutotranslate(ctx, msg, args, replyLang)
	case "stats":
		r.cmdStats(ctx, msg, replyLang)
	default:
		r.logger.Debug().Str("command", command).Msg("ignoring unknown command")
	}
}

func (r *Router) cmdSetMyLang(ctx context.Context, msg *platform.Message, args, replyLang string) {
	lang := language.Normalize(args)
	if lang == "" {
		r.reply(ctx, msg, i18n.T(replyLang, "invalid_language", strings.Join(language.SupportedCodes(), ", ")))
		return
	}
	if err := r.store.SetUserTargetLanguage(ctx, msg.From.ID, lang); err != nil {
		r.logger.Error().Err(err).Int64("user_id", msg.From.ID).Msg("set user language failed")
		r.reply(ctx, msg, i18n.T(replyLang, "translation_error"))
		return
	}
	r.reply(ctx, msg, i18n.T(replyLang, "language_set", language.Name(lang, replyLang)))
}

func (r *Router) cmdReset(ctx context.Context, msg *platform.Message, replyLang string) {
	if err := r.store.SetUserTargetLanguage(ctx, msg.From.ID, r.cfg.DefaultUserLang); err != nil {
		r.logger.Error().Err(err).Int64("user_id", msg.From.ID).Msg("reset user language failed")
		r.reply(ctx, msg, i18n.T(replyLang, "translation_error"))
		return
	}
	r.reply(ctx, msg, i18n.T(replyLang, "reset_done"))
}

func (r *Router) cmdPrivacy(ctx context.Context, msg *platform.Message, replyLang string) {
	if err := r.store.DeleteUserData(ctx, msg.From.ID); err != nil {
		r.logger.Error().Err(err).Int64("user_id", msg.From.ID).Msg("delete user data failed")
		r.reply(ctx, msg, i18n.T(replyLang, "translation_error"))
		return
	}
	r.reply(ctx, msg, i18n.T(replyLang, "privacy_done"))
}

func (r *Router) cmdMyChannels(ctx context.Context, msg *platform.Message, replyLang string) {
	channels, err := r.store.ListUserChannels(ctx, msg.From.ID)
	if err != nil {
		r.logger.Error().Err(err).Int64("user_id", msg.From.ID).Msg("list user channels failed")
		r.reply(ctx, msg, i18n.T(replyLang, "translation_error"))
		return
	}
	if len(channels) == 0 {
		r.reply(ctx, msg, i18n.T(replyLang, "no_channels"))
		return
	}

	var b strings.Builder
	b.WriteString(i18n.T(replyLang, "my_channels_header"))
	for _, ch := range channels {
		state := "on"
		if !ch.Autotranslate {
			state = "off"
		}
		fmt.Fprintf(&b, "\n• %s — %s (autotranslate %s)", ch.Title, ch.TargetLangs, state)
	}
	r.reply(ctx, msg, b.String())
}

func (r *Router) cmdSetChannelLangs(ctx context.Context, msg *platform.Message, args, replyLang string) {
	if !r.requireAdmin(ctx, msg, replyLang) {
		return
	}

	langs := language.ParseList(args)
	if len(langs) == 0 || len(langs) > 5 {
		r.reply(ctx, msg, i18n.T(replyLang, "invalid_language", strings.Join(language.SupportedCodes(), ", ")))
		return
	}

	if err := r.store.SetChannelSettings(ctx, msg.Chat.ID, langs, nil, r.cfg.DefaultChannelLangList()); err != nil {
		r.logger.Error().Err(err).Int64("chat_id", msg.Chat.ID).Msg("set channel languages failed")
		r.reply(ctx, msg, i18n.T(replyLang, "translation_error"))
		return
	}
	r.reply(ctx, msg, i18n.T(replyLang, "channel_langs_set", strings.Join(langs, ", ")))
}

func (r *Router) cmdToggleAutotranslate(ctx context.Context, msg *platform.Message, args, replyLang string) {
	if !r.requireAdmin(ctx, msg, replyLang) {
		return
	}

	var enabled bool
	switch strings.ToLower(strings.TrimSpace(args)) {
	case "on", "true", "1", "yes":
		enabled = true
	case "off", "false", "0", "no":
		enabled = false
	default:
		r.reply(ctx, msg, i18n.T(replyLang, "help"))
		return
	}

	if err := r.store.SetChannelSettings(ctx, msg.Chat.ID, nil, &enabled, r.cfg.DefaultChannelLangList()); err != nil {
		r.logger.Error().Err(err).Int64("chat_id", msg.Chat.ID).Msg("toggle autotranslate failed")
		r.reply(ctx, msg, i18n.T(replyLang, "translation_error"))
		return
	}
	if enabled {
		r.reply(ctx, msg, i18n.T(replyLang, "autotranslate_enabled"))
	} else {
		r.reply(ctx, msg, i18n.T(replyLang, "autotranslate_disabled"))
	}
}

func (r *Router) cmdStats(ctx context.Context, msg *platform.Message, replyLang string) {
	if !r.requireAdmin(ctx, msg, replyLang) {
		return
	}

	stats, err := r.store.GetTranslationStats(ctx, msg.Chat.ID, statsWindowDays)
	if err != nil {
		r.logger.Error().Err(err).Int64("chat_id", msg.Chat.ID).Msg("stats query failed")
		r.reply(ctx, msg, i18n.T(replyLang, "translation_error"))
		return
	}
	r.reply(ctx, msg, i18n.T(replyLang, "stats_message", statsWindowDays, stats.Posts, stats.Translations))
}

// requireAdmin gates channel administration commands. In private chats
// there is no channel to administer, so the command is rejected there
// too.
func (r *Router) requireAdmin(ctx context.Context, msg *platform.Message, replyLang string) bool {
	if msg.Chat.Type == platform.ChatTypePrivate {
		r.reply(ctx, msg, i18n.T(replyLang, "admin_only"))
		return false
	}
	if !r.isAdmin(ctx, msg.Chat.ID, msg.From.ID) {
		r.reply(ctx, msg, i18n.T(replyLang, "admin_only"))
		return false
	}
	return true
}

// isAdmin checks the member status, consulting the short-lived cache
// first. Lookup failures deny and are not cached.
func (r *Router) isAdmin(ctx context.Context, chatID, userID int64) bool {
	if isAdmin, ok := r.admins.get(chatID, userID); ok {
		return isAdmin
	}

	status, err := r.sender.GetChatMemberStatus(ctx, chatID, userID)
	if err != nil {
		r.logger.Warn().Err(err).Int64("chat_id", chatID).Int64("user_id", userID).Msg("member status lookup failed")
		return false
	}

	isAdmin := status == platform.MemberStatusCreator || status == platform.MemberStatusAdministrator
	r.admins.set(chatID, userID, isAdmin)
	return isAdmin
}
