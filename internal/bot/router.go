// Package bot routes inbound platform updates through detection,
// settings, rate limiting and translation, and posts the results back.
package bot

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"horse.fit/polyglot/internal/config"
	"horse.fit/polyglot/internal/db"
	"horse.fit/polyglot/internal/i18n"
	"horse.fit/polyglot/internal/language"
	"horse.fit/polyglot/internal/message"
	"horse.fit/polyglot/internal/metrics"
	"horse.fit/polyglot/internal/platform"
	"horse.fit/polyglot/internal/ratelimit"
	"horse.fit/polyglot/internal/translation"
)

// Store is the persistence surface the router needs. *db.Pool
// implements it; tests substitute stubs.
type Store interface {
	GetChannelSettings(ctx context.Context, chatID int64, defaultLangs []string) (db.ChannelConfig, error)
	SetChannelSettings(ctx context.Context, chatID int64, targetLangs []string, autotranslate *bool, defaultLangs []string) error
	GetUserTargetLanguage(ctx context.Context, userID int64) (*string, error)
	SetUserTargetLanguage(ctx context.Context, userID int64, targetLang string) error
	RecordTranslationStats(ctx context.Context, channelID int64, posts, translations int) error
	GetTranslationStats(ctx context.Context, channelID int64, days int) (db.ChannelStats, error)
	AddUserChannel(ctx context.Context, userID, channelID int64, title string) error
	RemoveUserChannel(ctx context.Context, userID, channelID int64) error
	ListUserChannels(ctx context.Context, userID int64) ([]db.UserChannelInfo, error)
	DeleteUserData(ctx context.Context, userID int64) error
	DeleteChannelData(ctx context.Context, chatID int64) error
}

// Translator is the orchestration surface the router needs.
type Translator interface {
	Translate(ctx context.Context, text, targetLang, sourceLang string) (translation.Result, error)
	TranslateMultiple(ctx context.Context, text string, targetLangs []string, sourceLang string) []translation.Result
	DetectLanguage(ctx context.Context, text string) string
	Primary() string
}

// Router dispatches inbound updates to the per-kind flows.
type Router struct {
	cfg        *config.Config
	logger     zerolog.Logger
	store      Store
	limiter    *ratelimit.MultiLimiter
	translator Translator
	sender     platform.Sender
	admins     *adminCache
}

func NewRouter(
	cfg *config.Config,
	logger zerolog.Logger,
	store Store,
	limiter *ratelimit.MultiLimiter,
	translator Translator,
	sender platform.Sender,
) *Router {
	return &Router{
		cfg:        cfg,
		logger:     logger,
		store:      store,
		limiter:    limiter,
		translator: translator,
		sender:     sender,
		admins:     newAdminCache(),
	}
}

// HandleUpdate dispatches one inbound update. Failures are logged, not
// returned: the webhook endpoint has already acknowledged the event.
func (r *Router) HandleUpdate(ctx context.Context, update *platform.Update) {
	kind := update.Kind()
	metrics.WebhookEvents.WithLabelValues(kind).Inc()

	switch {
	case update == nil:
		return
	case update.Message != nil:
		r.handleMessage(ctx, update.Message)
	case update.ChannelPost != nil:
		r.handleChannelPost(ctx, update.ChannelPost, false)
	case update.EditedChannelPost != nil:
		r.handleChannelPost(ctx, update.EditedChannelPost, true)
	case update.MyChatMember != nil:
		r.handleMembership(ctx, update.MyChatMember)
	case update.EditedMessage != nil:
		// Edits to private and group messages are not re-translated.
	default:
		r.logger.Debug().Int64("update_id", update.UpdateID).Msg("ignoring unknown update kind")
	}
}

func (r *Router) handleMessage(ctx context.Context, msg *platform.Message) {
	if msg.From == nil || msg.From.IsBot {
		return
	}

	switch msg.Chat.Type {
	case platform.ChatTypePrivate:
		r.handlePrivate(ctx, msg)
	case platform.ChatTypeGroup, platform.ChatTypeSupergroup:
		r.handleGroupMessage(ctx, msg)
	}
}

func (r *Router) handlePrivate(ctx context.Context, msg *platform.Message) {
	if strings.HasPrefix(strings.TrimSpace(msg.Text), "/") {
		r.handleCommand(ctx, msg)
		return
	}
	r.translateForUser(ctx, msg)
}

// translateForUser runs the private free-text flow: rate limit, resolve
// the target (inline directive beats stored preference), translate and
// reply.
func (r *Router) translateForUser(ctx context.Context, msg *platform.Message) {
	userID := msg.From.ID
	replyLang := r.replyLanguage(ctx, msg.From)

	if !r.admit(ctx, msg, replyLang) {
		return
	}

	text := message.ExtractText(r.cfg.MaxTextLength, msg.Text, msg.Caption)
	if text == "" {
		r.send(ctx, msg.Chat.ID, i18n.T(replyLang, "no_text"))
		return
	}

	target, rest := language.ExtractDirective(text)
	if target != "" {
		text = rest
	} else {
		target = r.userTargetLanguage(ctx, userID)
	}

	result, err := r.translator.Translate(ctx, text, target, "")
	if err != nil {
		r.logger.Error().Err(err).Int64("user_id", userID).Msg("private translation failed")
		r.send(ctx, msg.Chat.ID, i18n.T(replyLang, "translation_error"))
		return
	}

	if result.Provider == translation.PassThroughProvider {
		r.send(ctx, msg.Chat.ID, i18n.T(replyLang, "same_language"))
		return
	}

	for _, chunk := range message.Split(result.Text, r.cfg.MaxCommentLength) {
		r.send(ctx, msg.Chat.ID, chunk)
	}
}

// handleGroupMessage reacts only to messages addressed to the bot:
// admin commands, replies to the bot, or @mentions.
func (r *Router) handleGroupMessage(ctx context.Context, msg *platform.Message) {
	trimmed := strings.TrimSpace(msg.Text)
	if strings.HasPrefix(trimmed, "/") {
		r.handleCommand(ctx, msg)
		return
	}

	if !r.addressedToBot(msg) {
		return
	}

	replyLang := r.replyLanguage(ctx, msg.From)
	if !r.admit(ctx, msg, replyLang) {
		return
	}

	text := message.ExtractText(r.cfg.MaxTextLength, msg.Text, msg.Caption)
	text = stripMention(text, r.cfg.BotUsername)
	if text == "" {
		r.reply(ctx, msg, i18n.T(replyLang, "no_text"))
		return
	}

	target, rest := language.ExtractDirective(text)
	if target != "" {
		text = rest
	} else {
		target = r.groupTargetLanguage(ctx, msg.Chat.ID)
	}

	result, err := r.translator.Translate(ctx, text, target, "")
	if err != nil {
		r.logger.Error().Err(err).Int64("chat_id", msg.Chat.ID).Msg("group translation failed")
		r.reply(ctx, msg, i18n.T(replyLang, "translation_error"))
		return
	}
	if result.Provider == translation.PassThroughProvider {
		r.reply(ctx, msg, i18n.T(replyLang, "same_language"))
		return
	}

	for _, chunk := range message.Split(result.Text, r.cfg.MaxCommentLength) {
		r.reply(ctx, msg, chunk)
	}
}

// handleChannelPost translates a new or edited channel post into the
// channel's configured target languages.
func (r *Router) handleChannelPost(ctx context.Context, msg *platform.Message, edited bool) {
	chatID := msg.Chat.ID

	settings, err := r.store.GetChannelSettings(ctx, chatID, r.cfg.DefaultChannelLangList())
	if err != nil {
		// Read failures fall back to defaults so posts keep flowing.
		r.logger.Error().Err(err).Int64("chat_id", chatID).Msg("channel settings read failed, using defaults")
		settings = db.ChannelConfig{
			TargetLangs:   r.cfg.DefaultChannelLangList(),
			Autotranslate: true,
		}
	}
	if !settings.Autotranslate {
		return
	}

	text := message.ExtractText(r.cfg.MaxTextLength, msg.Text, msg.Caption)
	if text == "" {
		return
	}

	source := r.translator.DetectLanguage(ctx, text)
	results := r.translator.TranslateMultiple(ctx, text, settings.TargetLangs, source)

	r.recordStats(ctx, chatID, 1, len(results))
	if len(results) == 0 {
		return
	}

	for _, chunk := range message.FormatTranslations(results, source, edited, r.cfg.MaxCommentLength) {
		r.send(ctx, chatID, chunk)
	}
}

// handleMembership reacts to the bot's own membership changing in a
// chat: register on add, clean up on removal. Any membership event also
// invalidates the chat's admin cache entries.
func (r *Router) handleMembership(ctx context.Context, update *platform.ChatMemberUpdate) {
	chatID := update.Chat.ID
	r.admins.invalidateChat(chatID)

	// Only channels and supergroups carry a registration. A private
	// membership event is a user blocking or unblocking the bot.
	switch update.Chat.Type {
	case platform.ChatTypeChannel, platform.ChatTypeSupergroup:
	default:
		return
	}

	wasIn := isActiveMember(update.OldChatMember.Status)
	isIn := isActiveMember(update.NewChatMember.Status)
	removed := update.NewChatMember.Status == platform.MemberStatusLeft ||
		update.NewChatMember.Status == platform.MemberStatusKicked

	switch {
	case !wasIn && isIn:
		userID := update.From.ID
		if err := r.store.AddUserChannel(ctx, userID, chatID, update.Chat.Title); err != nil {
			r.logger.Error().Err(err).Int64("chat_id", chatID).Msg("register user channel failed")
		}
		if err := r.store.SetChannelSettings(ctx, chatID, nil, nil, r.cfg.DefaultChannelLangList()); err != nil {
			r.logger.Error().Err(err).Int64("chat_id", chatID).Msg("create channel settings failed")
		}
		replyLang := r.replyLanguage(ctx, &update.From)
		r.send(ctx, userID, i18n.T(replyLang, "channel_added", update.Chat.Title))
		r.logger.Info().Int64("chat_id", chatID).Int64("user_id", userID).Msg("bot added to chat")

	// A restriction is not a removal: the bot is still in the chat and
	// its settings and stats must survive.
	case removed:
		userID := update.From.ID
		if err := r.store.RemoveUserChannel(ctx, userID, chatID); err != nil {
			r.logger.Error().Err(err).Int64("chat_id", chatID).Msg("remove user channel failed")
		}
		if err := r.store.DeleteChannelData(ctx, chatID); err != nil {
			r.logger.Error().Err(err).Int64("chat_id", chatID).Msg("delete channel data failed")
		}
		r.logger.Info().Int64("chat_id", chatID).Msg("bot removed from chat")
	}
}

// admit runs the rate limiter for msg's user and chat; on denial it
// notifies the user and records the denial.
func (r *Router) admit(ctx context.Context, msg *platform.Message, replyLang string) bool {
	decision := r.limiter.Check(msg.From.ID, msg.Chat.ID)
	if decision.Allowed {
		return true
	}
	metrics.RateLimitDenials.WithLabelValues(decision.Scope).Inc()
	r.reply(ctx, msg, i18n.T(replyLang, "rate_limit", decision.RetryAfter))
	return false
}

// userTargetLanguage resolves a user's stored preference, defaulting to
// the configured user language on a miss or read failure.
func (r *Router) userTargetLanguage(ctx context.Context, userID int64) string {
	stored, err := r.store.GetUserTargetLanguage(ctx, userID)
	if err != nil {
		r.logger.Error().Err(err).Int64("user_id", userID).Msg("user settings read failed, using default")
		return r.cfg.DefaultUserLang
	}
	if stored == nil || *stored == "" {
		return r.cfg.DefaultUserLang
	}
	return *stored
}

// groupTargetLanguage picks the first configured target language of the
// chat for directive-less group requests.
func (r *Router) groupTargetLanguage(ctx context.Context, chatID int64) string {
	settings, err := r.store.GetChannelSettings(ctx, chatID, r.cfg.DefaultChannelLangList())
	if err != nil || len(settings.TargetLangs) == 0 {
		return r.cfg.DefaultUserLang
	}
	return settings.TargetLangs[0]
}

// replyLanguage picks the catalog language for service replies: the
// user's stored preference when it exists, else their client language.
// A valid preference outside the catalogs replies in English.
func (r *Router) replyLanguage(ctx context.Context, user *platform.User) string {
	if user == nil {
		return "en"
	}
	if stored, err := r.store.GetUserTargetLanguage(ctx, user.ID); err == nil && stored != nil {
		if lang := catalogLanguage(*stored); lang != "" {
			return lang
		}
		if language.Normalize(*stored) != "" {
			return "en"
		}
	}
	if lang := catalogLanguage(user.LanguageCode); lang != "" {
		return lang
	}
	return "en"
}

// catalogLanguage maps a raw language code onto one of the reply
// catalogs, or "" when no catalog covers it.
func catalogLanguage(code string) string {
	normalized := language.Normalize(code)
	if normalized == "" {
		return ""
	}
	for _, lang := range i18n.Languages() {
		if lang == normalized {
			return lang
		}
	}
	return ""
}

func (r *Router) recordStats(ctx context.Context, channelID int64, posts, translations int) {
	// Statistics are best-effort; a failed write never blocks delivery.
	if err := r.store.RecordTranslationStats(ctx, channelID, posts, translations); err != nil {
		r.logger.Warn().Err(err).Int64("channel_id", channelID).Msg("stats recording failed")
	}
}

func (r *Router) send(ctx context.Context, chatID int64, text string) {
	if err := r.sender.SendMessage(ctx, chatID, text); err != nil {
		r.logger.Error().Err(err).Int64("chat_id", chatID).Msg("send message failed")
	}
}

func (r *Router) reply(ctx context.Context, msg *platform.Message, text string) {
	if err := r.sender.Reply(ctx, msg.Chat.ID, msg.ID, text); err != nil {
		r.logger.Error().Err(err).Int64("chat_id", msg.Chat.ID).Msg("reply failed")
	}
}

// addressedToBot reports whether a group message targets the bot via a
// reply or an @mention.
func (r *Router) addressedToBot(msg *platform.Message) bool {
	if msg.ReplyTo != nil && msg.ReplyTo.From != nil && msg.ReplyTo.From.IsBot {
		return true
	}
	username := strings.TrimSpace(r.cfg.BotUsername)
	if username == "" {
		return false
	}
	return strings.Contains(strings.ToLower(msg.Text), "@"+strings.ToLower(username))
}

func stripMention(text, username string) string {
	if strings.TrimSpace(username) == "" {
		return strings.TrimSpace(text)
	}
	mention := "@" + username
	// Case-insensitive removal of the first mention occurrence.
	lower := strings.ToLower(text)
	idx := strings.Index(lower, strings.ToLower(mention))
	if idx < 0 {
		return strings.TrimSpace(text)
	}
	return strings.TrimSpace(text[:idx] + text[idx+len(mention):])
}

// isActiveMember reports whether status means the bot is in the chat.
// Restricted counts: the bot keeps its registration until it leaves or
// is kicked.
func isActiveMember(status string) bool {
	switch status {
	case platform.MemberStatusCreator, platform.MemberStatusAdministrator,
		platform.MemberStatusMember, platform.MemberStatusRestricted:
		return true
	}
	return false
}
