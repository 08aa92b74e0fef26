package handlers

import (
	"image-giveaway/services"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Reply texts. English is the key itself; other languages are registered below.
const (
	msgWelcome           = "Welcome, %s! You are in the game."
	msgAlreadyRegistered = "You are already registered."
	msgRegisterFirst     = "Register first to take part."
	msgWon               = services.MsgWin
	msgAlreadyWon        = services.MsgAlreadyWon
	msgExhausted         = services.MsgExhausted
	msgPrizeNotFound     = "There is no such prize."
	msgPrizeNotRevealed  = "This prize has not been revealed yet."
	msgResendQueued      = "Resend queued, your picture will arrive shortly."
	msgResendNoPoints    = "Not enough points: a resend costs %d."
	msgResendNoPrize     = "There is no recent prize to resend yet."
	msgPoints            = "You have %d points."
	msgNoCollage         = "Nothing to show yet."
	msgNoWinners         = "Nobody has won anything yet."
	msgRatingLine        = "%d. %s: %d"
	msgSeeded            = "Seeded %d new prize(s)."
	msgUploaded          = "Uploaded %s."
	msgRevealed          = "Revealed prize %d to %d user(s)."
	msgNoUnusedPrize     = "No unused prizes left."
	msgRevealBusy        = "A reveal is already running."
	msgInternalError     = "Something went wrong, try again later."
)

var supportedLanguages = []language.Tag{language.English, language.Russian}

var languageMatcher = language.NewMatcher(supportedLanguages)

func init() {
	ru := map[string]string{
		msgWelcome:           "Добро пожаловать, %s! Ты в игре.",
		msgAlreadyRegistered: "Ты уже зарегистрирован.",
		msgRegisterFirst:     "Сначала зарегистрируйся.",
		msgWon:               "Поздравляем, приз твой!",
		msgAlreadyWon:        "Ты уже получил этот приз!",
		msgExhausted:         "Увы, этот приз уже забрали трое.",
		msgPrizeNotFound:     "Такого приза нет.",
		msgPrizeNotRevealed:  "Этот приз ещё не открыт.",
		msgResendQueued:      "Запрос принят, картинка скоро придёт.",
		msgResendNoPoints:    "Недостаточно баллов: повтор стоит %d.",
		msgResendNoPrize:     "Пока нечего отправлять повторно.",
		msgPoints:            "У тебя %d баллов.",
		msgNoCollage:         "Пока нечего показать.",
		msgNoWinners:         "Пока никто ничего не выиграл.",
		msgRatingLine:        "%d. %s: %d",
		msgSeeded:            "Добавлено призов: %d.",
		msgUploaded:          "Загружено: %s.",
		msgRevealed:          "Приз %d показан пользователям: %d.",
		msgNoUnusedPrize:     "Неиспользованных призов не осталось.",
		msgRevealBusy:        "Показ уже идёт.",
		msgInternalError:     "Что-то пошло не так, попробуй позже.",

		services.MsgPrizeRevealed: "Новый приз! Успей забрать его в числе первых трёх.",
		services.MsgResend:        "Вот твоя повторная картинка!",
		services.MsgAssetMissing:  "Извини, эта картинка сейчас недоступна.",
	}
	for key, text := range ru {
		message.SetString(language.Russian, key, text)
	}
}

// printer picks the reply language from Accept-Language, English by default.
func printer(c *fiber.Ctx) *message.Printer {
	tags, _, err := language.ParseAcceptLanguage(c.Get(fiber.HeaderAcceptLanguage))
	if err != nil || len(tags) == 0 {
		return message.NewPrinter(language.English)
	}
	_, idx, _ := languageMatcher.Match(tags...)
	return message.NewPrinter(supportedLanguages[idx])
}

func reply(c *fiber.Ctx, status int, key message.Reference, args ...interface{}) error {
	return c.Status(status).JSON(fiber.Map{
		"message": printer(c).Sprintf(key, args...),
	})
}
