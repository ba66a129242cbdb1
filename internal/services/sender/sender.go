// Package sender доставляет уведомления об истечении доступа
// по почте и через LINE.
package sender

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/kokoroai/counselor-backend/internal/email"
	"github.com/kokoroai/counselor-backend/internal/lib/sl"
	"github.com/kokoroai/counselor-backend/internal/models"
)

// LinePusher описывает отправку текстового сообщения в LINE.
type LinePusher interface {
	PushText(ctx context.Context, lineUserID, text string) error
}

// Service обрабатывает сообщения очереди уведомлений.
type Service struct {
	email email.Sender
	line  LinePusher
	log   *slog.Logger
}

// NewService создает новый экземпляр Service.
func NewService(emailSender email.Sender, line LinePusher, log *slog.Logger) *Service {
	return &Service{email: emailSender, line: line, log: log}
}

// Handle разбирает сообщение очереди и рассылает уведомление.
// Подходит как обработчик для rabbitmq.ConsumerMessage.
func (s *Service) Handle(ctx context.Context, body []byte) error {
	const op = "services.sender.Handle"

	var notice models.ExpiryNotice
	if err := json.Unmarshal(body, &notice); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	subject, html, text := composeNotice(&notice)

	if err := s.email.Send(ctx, notice.Email, subject, html); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if notice.LineUserID != nil {
		if err := s.line.PushText(ctx, *notice.LineUserID, text); err != nil {
			// Письмо уже ушло, сообщение не возвращаем в очередь.
			s.log.Warn("failed to push line notice", sl.Err(err))
		}
	}

	s.log.Info("expiry notice delivered",
		slog.String("email", notice.Email),
		slog.String("kind", notice.Kind),
	)
	return nil
}

func composeNotice(n *models.ExpiryNotice) (subject, html, text string) {
	date := n.ExpiresAt.Format("2006-01-02")

	switch n.Kind {
	case models.NoticeKindTrial:
		subject = "無料トライアル終了のお知らせ"
		html = fmt.Sprintf(
			"<p>%s 様</p><p>無料トライアルは %s に終了します。引き続きご利用いただくには、プランへのご登録をお願いいたします。</p>",
			n.Username, date)
		text = fmt.Sprintf("無料トライアルは %s に終了します。引き続きご利用いただくには、プランへのご登録をお願いいたします。", date)
	default:
		subject = "ご契約プラン更新期限のお知らせ"
		html = fmt.Sprintf(
			"<p>%s 様</p><p>ご契約中のプランは %s に期限を迎えます。サービスを継続してご利用いただくには、更新のお手続きをお願いいたします。</p>",
			n.Username, date)
		text = fmt.Sprintf("ご契約中のプランは %s に期限を迎えます。更新のお手続きをお願いいたします。", date)
	}
	return subject, html, text
}
