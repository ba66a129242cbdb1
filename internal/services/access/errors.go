package access

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/kokoroai/counselor-backend/internal/models"
)

// AccessError - типизированный отказ в доступе с HTTP-статусом и текстом для клиента.
type AccessError struct {
	Status int
	Detail string
}

// Error реализует интерфейс error.
func (e *AccessError) Error() string {
	return fmt.Sprintf("access error %d: %s", e.Status, e.Detail)
}

// NewPaymentRequired возвращает отказ 402 с указанием требуемого тарифа.
func NewPaymentRequired(plan models.PlanTier) *AccessError {
	return &AccessError{
		Status: http.StatusPaymentRequired,
		Detail: fmt.Sprintf("Please subscribe to the %s plan or use an active trial / campaign code", plan),
	}
}

// ParseAccessError извлекает статус и текст из ошибки доступа.
// Для nil и прочих ошибок возвращает 403 с обезличенным текстом.
func ParseAccessError(err error) (int, string) {
	var accessErr *AccessError
	if errors.As(err, &accessErr) {
		return accessErr.Status, accessErr.Detail
	}
	return http.StatusForbidden, "Access denied"
}
