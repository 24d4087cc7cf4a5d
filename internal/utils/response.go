package utils

import (
	"github.com/gofiber/fiber/v3"
)

// Коды ошибок, которые видят клиенты
const (
	CodeMissingRequiredFields    = "MISSING_REQUIRED_FIELDS"
	CodeInvalidInput             = "INVALID_INPUT"
	CodeInvalidBookID            = "INVALID_BOOK_ID"
	CodeInvalidTradeID           = "INVALID_TRADE_ID"
	CodeNoToken                  = "NO_TOKEN"
	CodeInvalidToken             = "INVALID_TOKEN"
	CodeNotAuthorized            = "NOT_AUTHORIZED"
	CodeNotBookOwner             = "NOT_BOOK_OWNER"
	CodeBookNotFound             = "BOOK_NOT_FOUND"
	CodeBookInTrade              = "BOOK_IN_TRADE"
	CodeRequestedBookNotFound    = "REQUESTED_BOOK_NOT_FOUND"
	CodeOfferedBookNotFound      = "OFFERED_BOOK_NOT_FOUND"
	CodeRequestedBookUnavailable = "REQUESTED_BOOK_UNAVAILABLE"
	CodeOfferedBookUnavailable   = "OFFERED_BOOK_UNAVAILABLE"
	CodeCannotRequestOwnBook     = "CANNOT_REQUEST_OWN_BOOK"
	CodeDuplicateTrade           = "DUPLICATE_TRADE"
	CodeTradeNotFound            = "TRADE_NOT_FOUND"
	CodeInvalidTradeStatus       = "INVALID_TRADE_STATUS"
	CodeTradeNotCompleted        = "TRADE_NOT_COMPLETED"
	CodeMissingStars             = "MISSING_STARS"
	CodeInvalidStars             = "INVALID_STARS"
	CodeCommentRequired          = "COMMENT_REQUIRED"
	CodeDuplicateRating          = "DUPLICATE_RATING"
	CodeRatingNotFound           = "RATING_NOT_FOUND"
	CodeEmptyContent             = "EMPTY_CONTENT"
	CodeContentTooLong           = "CONTENT_TOO_LONG"
	CodeUserNotFound             = "USER_NOT_FOUND"
	CodeWishlistItemNotFound     = "WISHLIST_ITEM_NOT_FOUND"
	CodeDuplicateWishlistItem    = "DUPLICATE_WISHLIST_ITEM"
	CodeNotificationNotFound     = "NOTIFICATION_NOT_FOUND"
	CodeNotFound                 = "NOT_FOUND"
	CodeInternalError            = "INTERNAL_ERROR"
)

// Fail отправляет структурированный ответ об ошибке
func Fail(c fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"error": fiber.Map{
			"message": message,
			"code":    code,
		},
	})
}

// FailInternal логирование ошибки выполняет вызывающая сторона,
// клиенту уходит только общий код без внутренних деталей
func FailInternal(c fiber.Ctx) error {
	return Fail(c, fiber.StatusInternalServerError, CodeInternalError, "Внутренняя ошибка сервера")
}
