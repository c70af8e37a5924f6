package tcrform

import (
	"context"

	"makeupexam/internal/browser"
	"makeupexam/internal/config"
	"makeupexam/internal/logging"
	"makeupexam/internal/services"
)

// upload opens the attachment dialog, sets the file and presses Upload. The
// file input and the button are each searched in the modal container, then the
// top-level document, then every iframe.
func (a *Automator) upload(ctx context.Context, page browser.Page, frame browser.Scope, attachment string) error {
	logger := logging.WithContext(ctx, a.logger)

	if err := frame.Click(ctx, SelectorAttachAdd); err != nil {
		return services.Wrap(services.ErrBrowser, "upload", "open attachment dialog", SelectorAttachAdd, err)
	}
	if err := pause(ctx, config.Millis(a.timing.AfterAttachClick)); err != nil {
		return err
	}

	scope, selector, err := a.findFileInput(ctx, page)
	if err != nil {
		return err
	}
	if scope == nil {
		return services.Wrap(services.ErrNotFound, "upload", "locate file input", "file input not found anywhere", nil)
	}
	if err := scope.SetFiles(ctx, selector, []string{attachment}); err != nil {
		return services.Wrap(services.ErrBrowser, "upload", "set file", attachment, err)
	}
	logger.Info("attachment file set", logging.String("file", attachment))
	if err := pause(ctx, config.Millis(a.timing.AfterFileSet)); err != nil {
		return err
	}

	clicked, err := a.clickUploadButton(ctx, page)
	if err != nil {
		return err
	}
	if !clicked {
		return services.Wrap(services.ErrNotFound, "upload", "locate upload button", "upload button not found anywhere", nil)
	}
	if err := pause(ctx, config.Millis(a.timing.AfterUpload)); err != nil {
		return err
	}
	logger.Info("attachment uploaded", logging.String("file", attachment))
	return nil
}

func (a *Automator) findFileInput(ctx context.Context, page browser.Page) (browser.Scope, string, error) {
	logger := logging.WithContext(ctx, a.logger)
	doc := page.Document()

	if err := doc.WaitVisible(ctx, SelectorModals, config.Millis(a.timing.ModalTimeout)); err == nil {
		if found, _ := doc.Exists(ctx, SelectorModalFileInput); found {
			logger.Debug("found file input in modal")
			return doc, SelectorModalFileInput, nil
		}
	} else if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, "", ctxErr
	} else {
		logger.Debug("modal container not found, trying alternatives", logging.Error(err))
	}

	if found, _ := doc.Exists(ctx, SelectorFileInput); found {
		logger.Debug("found file input on page")
		return doc, SelectorFileInput, nil
	}

	frames, err := page.Frames(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, "", ctxErr
		}
		logger.Debug("could not list frames", logging.Error(err))
		return nil, "", nil
	}
	for _, f := range frames {
		if found, _ := f.Exists(ctx, SelectorFileInput); found {
			logger.Debug("found file input in frame")
			return f, SelectorFileInput, nil
		}
	}
	return nil, "", ctx.Err()
}

func (a *Automator) clickUploadButton(ctx context.Context, page browser.Page) (bool, error) {
	logger := logging.WithContext(ctx, a.logger)
	scopes := []browser.Scope{page.Document()}
	if frames, err := page.Frames(ctx); err == nil {
		scopes = append(scopes, frames...)
	} else if ctxErr := ctx.Err(); ctxErr != nil {
		return false, ctxErr
	}

	for _, scope := range scopes {
		if found, _ := scope.Exists(ctx, SelectorUploadButton); found {
			if err := scope.Click(ctx, SelectorUploadButton); err != nil {
				return false, services.Wrap(services.ErrBrowser, "upload", "click upload", SelectorUploadButton, err)
			}
			return true, nil
		}
		button, found, err := scope.ButtonWithText(ctx, uploadButtonText)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return false, ctxErr
			}
			logger.Debug("button search failed", logging.Error(err))
			continue
		}
		if found {
			if err := button.Click(ctx); err != nil {
				return false, services.Wrap(services.ErrBrowser, "upload", "click upload", uploadButtonText, err)
			}
			return true, nil
		}
	}
	return false, ctx.Err()
}
