// Package i18n holds the localized user-facing strings. Lookups fall
// back to English for unknown languages or missing keys.
package i18n

import "fmt"

const fallbackLang = "en"

var catalogs = map[string]map[string]string{
	"en": {
		"start": "Hello!\nThis bot translates messages for your channels and groups.\n\n" +
			"For channels: add the bot as an administrator and it will translate new posts.\n" +
			"For groups: mention the bot or reply to it and it will translate the message.\n" +
			"In private chat: just send any text and it will be translated into your language.\n\n" +
			"Use /help to see all commands.",
		"help": "Commands:\n" +
			"/set_my_lang <code> - set your preferred language (example: /set_my_lang ru)\n" +
			"/set_channel_langs <codes> - set channel target languages (admins, example: en,ru,tr)\n" +
			"/toggle_autotranslate on|off - enable or disable channel auto-translation (admins)\n" +
			"/stats - channel translation statistics (admins)\n" +
			"/my_channels - list the channels you added the bot to\n" +
			"/provider - show the active translation provider\n" +
			"/reset - clear your language preference\n" +
			"/privacy - delete all data stored about you\n" +
			"/help - this message",
		"language_set":           "Your language has been set to: %s",
		"invalid_language":       "Invalid language code. Supported: %s",
		"channel_langs_set":      "Channel target languages set to: %s",
		"autotranslate_enabled":  "Auto-translation enabled for this channel",
		"autotranslate_disabled": "Auto-translation disabled for this channel",
		"admin_only":             "This command is only available to channel administrators",
		"rate_limit":             "Too many requests. Please try again in %d seconds",
		"translation_error":      "Translation failed. Please try again later",
		"no_text":                "No text to translate",
		"same_language":          "Text is already in the target language",
		"provider_info":          "Current translation provider: %s",
		"stats_message":          "Translation statistics for the last %d days:\nPosts: %d\nTranslations: %d",
		"reset_done":             "Your language preference has been cleared",
		"privacy_done":           "All your stored data has been deleted",
		"channel_added":          "The bot was added to %q. New posts will be translated automatically. Use /set_channel_langs to choose target languages.",
		"my_channels_header":     "Your channels:",
		"no_channels":            "The bot is not in any of your channels yet. Add it to a channel as an administrator to get started.",
	},
	"ru": {
		"start": "Привет!\nЭтот бот переводит сообщения для ваших каналов и групп.\n\n" +
			"Для каналов: добавьте бота администратором, и он будет переводить новые посты.\n" +
			"Для групп: упомяните бота или ответьте ему, и он переведёт сообщение.\n" +
			"В личном чате: просто отправьте текст, и он будет переведён на ваш язык.\n\n" +
			"Команда /help покажет все команды.",
		"help": "Команды:\n" +
			"/set_my_lang <код> - выбрать ваш язык (пример: /set_my_lang en)\n" +
			"/set_channel_langs <коды> - целевые языки канала (для админов, пример: en,ru,tr)\n" +
			"/toggle_autotranslate on|off - включить или выключить автоперевод (для админов)\n" +
			"/stats - статистика переводов канала (для админов)\n" +
			"/my_channels - список каналов, куда вы добавили бота\n" +
			"/provider - показать активный провайдер перевода\n" +
			"/reset - сбросить выбранный язык\n" +
			"/privacy - удалить все сохранённые о вас данные\n" +
			"/help - это сообщение",
		"language_set":           "Ваш язык установлен: %s",
		"invalid_language":       "Неверный код языка. Поддерживаются: %s",
		"channel_langs_set":      "Целевые языки канала: %s",
		"autotranslate_enabled":  "Автоперевод включён для этого канала",
		"autotranslate_disabled": "Автоперевод выключен для этого канала",
		"admin_only":             "Эта команда доступна только администраторам канала",
		"rate_limit":             "Слишком много запросов. Попробуйте снова через %d секунд",
		"translation_error":      "Ошибка перевода. Попробуйте позже",
		"no_text":                "Нет текста для перевода",
		"same_language":          "Текст уже на целевом языке",
		"provider_info":          "Текущий провайдер перевода: %s",
		"stats_message":          "Статистика переводов за последние %d дней:\nПостов: %d\nПереводов: %d",
		"reset_done":             "Ваш выбор языка сброшен",
		"privacy_done":           "Все сохранённые о вас данные удалены",
		"channel_added":          "Бот добавлен в %q. Новые посты будут переводиться автоматически. Используйте /set_channel_langs, чтобы выбрать целевые языки.",
		"my_channels_header":     "Ваши каналы:",
		"no_channels":            "Бот ещё не добавлен ни в один из ваших каналов. Добавьте его администратором в канал, чтобы начать.",
	},
}

// T renders the localized string for key, formatting args into its
// placeholders. Unknown languages fall back to English; an unknown key
// returns the key itself so a missing string is visible, not silent.
func T(lang, key string, args ...any) string {
	catalog, ok := catalogs[lang]
	if !ok {
		catalog = catalogs[fallbackLang]
	}
	format, ok := catalog[key]
	if !ok {
		format, ok = catalogs[fallbackLang][key]
		if !ok {
			return key
		}
	}
	if len(args) == 0 {
		return format
	}
	return fmt.Sprintf(format, args...)
}

// Languages lists the catalog languages.
func Languages() []string {
	return []string{"en", "ru"}
}
