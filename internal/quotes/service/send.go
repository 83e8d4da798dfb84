package service

import (
	"context"
	"fmt"
	"strings"

	"eventsite_backend/internal/adapters/storage"
	"eventsite_backend/internal/email"
	"eventsite_backend/internal/notification"
	"eventsite_backend/internal/payments"
	"eventsite_backend/internal/pdf"
	"eventsite_backend/internal/quotes/pricing"
	"eventsite_backend/internal/quotes/repository"
	"eventsite_backend/internal/quotes/transport"
	"eventsite_backend/platform/apperr"
	"eventsite_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const documentContentType = "application/pdf"

type paymentOutcome struct {
	url       string
	sessionID string
	created   bool
}

type documentOutcome struct {
	doc        *pdf.Document
	url        string
	fileKey    string
	uploadFail bool
}

// SendQuote prices the quote, obtains a payment link and a document, emails
// the customer and, once the email is delivered, marks the quote SENT.
//
// A missing payment link or document degrades the send but never blocks it.
// When no provider delivers the email the quote is left unchanged and the
// result is returned together with an ErrNotificationNotSent error.
func (s *Service) SendQuote(ctx context.Context, id uuid.UUID, mode transport.PaymentMode) (*transport.SendQuoteResponse, error) {
	ctx = context.WithValue(ctx, logger.QuoteIDKey, id.String())
	log := s.log.WithContext(ctx)

	bundle, err := s.loadQuote(ctx, id)
	if err != nil {
		return nil, err
	}
	q := bundle.quote

	current := transport.QuoteStatus(q.Status)
	if !current.CanTransitionTo(transport.QuoteStatusSent) {
		return nil, apperr.Conflict(fmt.Sprintf("quote in status %s cannot be sent", current))
	}
	if err := s.validateCustomer(bundle.customer); err != nil {
		return nil, err
	}

	priced, err := pricing.Calculate(bundle.pricingInput())
	if err != nil {
		return nil, err
	}

	if mode == "" {
		mode = transport.PaymentModeFull
		if priced.HasDeposit() {
			mode = transport.PaymentModeDeposit
		}
	}

	// Provider calls finish even if the caller goes away: a checkout session
	// created at the provider must not be abandoned mid-request.
	work := context.WithoutCancel(ctx)

	var (
		payment paymentOutcome
		docOut  documentOutcome
		g       errgroup.Group
	)
	g.Go(func() error {
		payment = s.obtainPaymentLink(work, bundle, priced, mode)
		return nil
	})
	g.Go(func() error {
		docOut = s.obtainDocument(work, bundle, priced, existingLink(q, mode))
		return nil
	})
	_ = g.Wait()

	resp := &transport.SendQuoteResponse{
		QuoteID:            q.ID,
		QuoteNumber:        q.QuoteNumber,
		Status:             current,
		CheckoutURL:        payment.url,
		SessionID:          payment.sessionID,
		PDFGenerated:       docOut.doc != nil,
		PaymentLinkCreated: payment.created,
		Totals:             totalsOf(priced),
	}
	if !payment.created {
		resp.Degradations = append(resp.Degradations, transport.DegradationPaymentLink)
	}
	switch {
	case docOut.doc == nil:
		resp.Degradations = append(resp.Degradations, transport.DegradationPDF)
	case docOut.doc.Fallback:
		resp.Degradations = append(resp.Degradations, transport.DegradationPDFFallback)
	}
	if docOut.uploadFail {
		resp.Degradations = append(resp.Degradations, transport.DegradationPDFUpload)
	}
	resp.Degraded = len(resp.Degradations) > 0

	msg, err := s.composeQuoteEmail(bundle, priced, mode, payment, docOut)
	if err != nil {
		log.Error("quote email could not be composed", "error", err)
		return nil, apperr.Wrap(apperr.KindInternal, "quote email could not be composed", err)
	}

	result := s.notifier.Dispatch(work, msg)
	resp.EmailSent = result.Sent
	resp.ProviderUsed = result.ProviderUsed

	attempts := s.attemptRows(q.ID, bundle.customer.Email, result, resp.PDFGenerated, payment.created)

	if !result.Sent {
		if err := s.repo.AppendNotificationAttempts(work, attempts); err != nil {
			log.Error("failed to record notification attempts", "error", err)
		}
		log.Warn("quote not sent, status unchanged", "quoteNumber", q.QuoteNumber, "attempts", len(result.Attempts))
		return resp, apperr.Unavailable(ErrNotificationNotSent.Error(), ErrNotificationNotSent).WithOp("quotes.SendQuote")
	}

	sentAt := s.now().UTC()
	outcome := repository.SendOutcome{
		QuoteID:        q.ID,
		SentAt:         sentAt,
		Amount:         priced.Subtotal,
		TaxAmount:      priced.Tax,
		GratuityAmount: priced.Gratuity,
		Total:          priced.Total,
		DepositAmount:  priced.DepositAmount,
		BalanceDue:     priced.BalanceDue,
		Attempts:       attempts,
	}
	if payment.created {
		modeValue := string(mode)
		outcome.PaymentSessionID = &payment.sessionID
		outcome.PaymentLink = &payment.url
		outcome.PaymentMode = &modeValue
	}
	if docOut.url != "" {
		outcome.PDFURL = &docOut.url
		outcome.PDFFileKey = &docOut.fileKey
	}

	if err := s.repo.MarkSent(work, outcome); err != nil {
		// the email is out; keep its audit rows even though the status stays put
		log.Error("quote emailed but status update failed", "quoteNumber", q.QuoteNumber, "error", err)
		if err := s.repo.AppendNotificationAttempts(work, attempts); err != nil {
			log.Error("failed to record notification attempts", "error", err)
		}
		resp.Degradations = append(resp.Degradations, transport.DegradationStatusNotPersisted)
		resp.Degraded = true
		return resp, nil
	}

	resp.Status = transport.QuoteStatusSent
	resp.SentAt = &sentAt
	log.Info("quote sent", "quoteNumber", q.QuoteNumber, "provider", result.ProviderUsed, "degraded", resp.Degraded)
	return resp, nil
}

// existingLink returns the persisted checkout link when it was issued for mode.
func existingLink(q *repository.Quote, mode transport.PaymentMode) string {
	if q.PaymentSessionID == nil || q.PaymentLink == nil || q.PaymentMode == nil {
		return ""
	}
	if *q.PaymentMode != string(mode) {
		return ""
	}
	return *q.PaymentLink
}

func (s *Service) obtainPaymentLink(ctx context.Context, b *quoteBundle, priced pricing.Result, mode transport.PaymentMode) paymentOutcome {
	q := b.quote
	if link := existingLink(q, mode); link != "" {
		return paymentOutcome{url: link, sessionID: *q.PaymentSessionID, created: true}
	}

	fallback := paymentOutcome{url: s.cfg.ContactPageURL}
	if s.payments == nil {
		return fallback
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.PaymentTimeout)
	defer cancel()

	req := payments.CheckoutRequest{
		QuoteID:       q.ID.String(),
		QuoteNumber:   q.QuoteNumber,
		CustomerEmail: strings.TrimSpace(b.customer.Email),
		Mode:          payments.Mode(mode),
		Title:         checkoutTitle(s.cfg.Business.Name, q),
		TotalMinor:    pricing.ToMinorUnits(priced.Total),
		DepositPct:    s.cfg.DepositPct,
	}
	applyQuoteDeposit(&req, q, priced)

	session, err := s.payments.Issue(ctx, req)
	if err != nil {
		s.log.WithContext(ctx).Warn("payment link unavailable, using contact page",
			"mode", string(mode), "invalidRequest", payments.IsInvalidRequest(err), "error", err)
		return fallback
	}
	return paymentOutcome{url: session.CheckoutURL, sessionID: session.SessionID, created: true}
}

// applyQuoteDeposit makes a deposit checkout collect the quote's own deposit
// terms. Quotes without a deposit keep the configured percentage.
func applyQuoteDeposit(req *payments.CheckoutRequest, q *repository.Quote, priced pricing.Result) {
	switch pricing.DepositType(q.DepositType) {
	case pricing.DepositPercentage:
		if q.DepositValue.IsPositive() {
			req.DepositPct = q.DepositValue.Div(decimal.NewFromInt(100))
		}
	case pricing.DepositFixed:
		if priced.HasDeposit() {
			req.DepositMinor = pricing.ToMinorUnits(priced.DepositAmount)
		}
	}
}

func checkoutTitle(business string, q *repository.Quote) string {
	title := "Quote " + q.QuoteNumber
	if q.EventType != nil && *q.EventType != "" {
		title = *q.EventType + " - " + title
	}
	if business != "" {
		title = business + ": " + title
	}
	return title
}

func (s *Service) obtainDocument(ctx context.Context, b *quoteBundle, priced pricing.Result, paymentLink string) documentOutcome {
	log := s.log.WithContext(ctx)

	ctx, cancel := context.WithTimeout(ctx, s.cfg.RenderTimeout)
	defer cancel()

	data := s.buildDocumentData(b, priced, transport.QuoteStatusSent, paymentLink)
	doc, err := s.renderer.Render(ctx, data)
	if err != nil {
		log.Error("quote document unavailable, sending without attachment", "error", err)
		return documentOutcome{}
	}

	out := documentOutcome{doc: doc}
	if s.documents == nil || s.cfg.DocumentBucket == "" {
		return out
	}

	key := storage.ObjectKey(doc.Filename, "quotes", b.quote.ID.String())
	if err := s.documents.PutObject(ctx, s.cfg.DocumentBucket, key, documentContentType, doc.Bytes); err != nil {
		log.Warn("quote document upload failed", "key", key, "error", err)
		out.uploadFail = true
		return out
	}
	presigned, err := s.documents.GenerateDownloadURL(ctx, s.cfg.DocumentBucket, key)
	if err != nil {
		log.Warn("quote document link failed", "key", key, "error", err)
		out.uploadFail = true
		return out
	}
	out.url = presigned.URL
	out.fileKey = key
	return out
}

func (s *Service) composeQuoteEmail(b *quoteBundle, priced pricing.Result, mode transport.PaymentMode, payment paymentOutcome, doc documentOutcome) (email.Message, error) {
	q := b.quote
	data := email.NewQuoteSentData(s.cfg.Business.Name, s.footerLines())
	data.CustomerName = strings.TrimSpace(b.customer.Name)
	data.QuoteNumber = q.QuoteNumber
	data.Total = pdf.FormatCurrency(priced.Total)
	data.PaymentURL = payment.url
	data.PaymentIsQuote = payment.created
	data.HasAttachment = doc.doc != nil
	data.DocumentURL = doc.url
	if q.EventType != nil {
		data.EventType = *q.EventType
	}
	if q.EventDate != nil {
		data.EventDate = q.EventDate.Format("January 2, 2006")
	}
	if q.GuestCount != nil {
		data.GuestCount = *q.GuestCount
	}
	if q.ValidUntil != nil {
		data.ValidUntil = q.ValidUntil.Format("January 2, 2006")
	}
	if priced.HasDeposit() {
		data.DepositAmount = pdf.FormatCurrency(priced.DepositAmount)
		data.BalanceDue = pdf.FormatCurrency(priced.BalanceDue)
	}

	switch {
	case payment.created && mode == transport.PaymentModeDeposit:
		data.SetCTA("Pay deposit", payment.url)
	case payment.created:
		data.SetCTA("Pay now", payment.url)
	case payment.url != "":
		data.SetCTA("Contact us to book", payment.url)
	}

	rendered, err := s.templates.Render(email.TemplateQuoteSent, data)
	if err != nil {
		return email.Message{}, err
	}

	msg := email.Message{
		To:       strings.TrimSpace(b.customer.Email),
		CC:       s.cfg.QuoteCCList,
		Subject:  rendered.Subject,
		HTMLBody: rendered.HTMLBody,
		TextBody: rendered.TextBody,
	}
	if doc.doc != nil {
		msg.Attachments = []email.Attachment{{
			Content:  doc.doc.Bytes,
			FileName: doc.doc.Filename,
			MIMEType: documentContentType,
		}}
	}
	return msg, nil
}

// attemptRows converts dispatch attempts into audit rows. A dispatch with no
// provider configured is recorded as a single failed attempt.
func (s *Service) attemptRows(quoteID uuid.UUID, recipient string, result notification.Result, pdfGenerated, linkCreated bool) []repository.NotificationAttempt {
	if len(result.Attempts) == 0 {
		msg := "no email provider configured"
		return []repository.NotificationAttempt{{
			QuoteID:            quoteID,
			Recipient:          recipient,
			Provider:           "none",
			Attempt:            1,
			Status:             repository.AttemptFailed,
			Error:              &msg,
			PDFGenerated:       pdfGenerated,
			PaymentLinkCreated: linkCreated,
			CreatedAt:          s.now().UTC(),
		}}
	}

	rows := make([]repository.NotificationAttempt, len(result.Attempts))
	for i, a := range result.Attempts {
		row := repository.NotificationAttempt{
			QuoteID:            quoteID,
			Recipient:          recipient,
			Provider:           a.Provider,
			Attempt:            a.Attempt,
			Status:             repository.AttemptSent,
			PDFGenerated:       pdfGenerated,
			PaymentLinkCreated: linkCreated,
			CreatedAt:          a.At.UTC(),
		}
		if a.Err != nil {
			errMsg := a.Err.Error()
			row.Status = repository.AttemptFailed
			row.Error = &errMsg
		}
		if row.CreatedAt.IsZero() {
			row.CreatedAt = s.now().UTC()
		}
		rows[i] = row
	}
	return rows
}

func totalsOf(r pricing.Result) transport.QuoteTotals {
	return transport.QuoteTotals{
		Subtotal:      r.Subtotal,
		Tax:           r.Tax,
		Gratuity:      r.Gratuity,
		Total:         r.Total,
		DepositAmount: r.DepositAmount,
		BalanceDue:    r.BalanceDue,
	}
}
