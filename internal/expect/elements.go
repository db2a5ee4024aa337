package expect

import (
	"context"
	"fmt"
	"strconv"

	"github.com/skilltree/skilltree-e2e/internal/dom"
	"github.com/skilltree/skilltree-e2e/internal/poll"
)

// ValidateElementsOrder checks that the Nth element matching selector
// contains the Nth expected substring and that the counts agree.
func (v *Validator) ValidateElementsOrder(ctx context.Context, s dom.Surface, selector string, expected []string) error {
	err := poll.Until(ctx, v.Poll, func(ctx context.Context) error {
		texts, err := s.Texts(ctx, selector)
		if err != nil {
			return err
		}
		for i, want := range expected {
			if i >= len(texts) {
				return &MismatchError{Selector: selector, Row: i + 1, Reason: "missing element", Expected: want}
			}
			if !matches(texts[i], want, false) {
				return &MismatchError{Selector: selector, Row: i + 1, Expected: want, Actual: texts[i]}
			}
		}
		if len(texts) != len(expected) {
			return &MismatchError{
				Selector: selector, Reason: "element count",
				Expected: strconv.Itoa(len(expected)), Actual: strconv.Itoa(len(texts)),
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("validate elements order: %w", err)
	}
	return nil
}

// Count waits until selector matches exactly n elements.
func (v *Validator) Count(ctx context.Context, s dom.Surface, selector string, n int) error {
	err := poll.Until(ctx, v.Poll, func(ctx context.Context) error {
		got, err := s.Count(ctx, selector)
		if err != nil {
			return err
		}
		if got != n {
			return &MismatchError{Selector: selector, Reason: "count", Expected: strconv.Itoa(n), Actual: strconv.Itoa(got)}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("expect count: %w", err)
	}
	return nil
}

// Exists waits until selector matches at least one element.
func (v *Validator) Exists(ctx context.Context, s dom.Surface, selector string) error {
	err := poll.Until(ctx, v.Poll, func(ctx context.Context) error {
		got, err := s.Count(ctx, selector)
		if err != nil {
			return err
		}
		if got == 0 {
			return &dom.NotFoundError{Selector: selector}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("expect exists: %w", err)
	}
	return nil
}

// Text waits until the first element matching selector contains want.
func (v *Validator) Text(ctx context.Context, s dom.Surface, selector, want string) error {
	err := poll.Until(ctx, v.Poll, func(ctx context.Context) error {
		texts, err := s.Texts(ctx, selector)
		if err != nil {
			return err
		}
		if len(texts) == 0 {
			return &dom.NotFoundError{Selector: selector}
		}
		if !matches(texts[0], want, false) {
			return &MismatchError{Selector: selector, Expected: want, Actual: texts[0]}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("expect text: %w", err)
	}
	return nil
}

// Disabled waits until the disabled state of selector equals want.
func (v *Validator) Disabled(ctx context.Context, s dom.Surface, selector string, want bool) error {
	err := poll.Until(ctx, v.Poll, func(ctx context.Context) error {
		got, err := s.IsDisabled(ctx, selector)
		if err != nil {
			return err
		}
		if got != want {
			return &MismatchError{Selector: selector, Reason: "disabled", Expected: strconv.FormatBool(want), Actual: strconv.FormatBool(got)}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("expect disabled: %w", err)
	}
	return nil
}

// Visible waits until the visibility of selector equals want.
func (v *Validator) Visible(ctx context.Context, s dom.Surface, selector string, want bool) error {
	err := poll.Until(ctx, v.Poll, func(ctx context.Context) error {
		got, err := s.IsVisible(ctx, selector)
		if err != nil {
			return err
		}
		if got != want {
			return &MismatchError{Selector: selector, Reason: "visible", Expected: strconv.FormatBool(want), Actual: strconv.FormatBool(got)}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("expect visible: %w", err)
	}
	return nil
}

// Fill waits for selector to accept input and types value into it.
func (v *Validator) Fill(ctx context.Context, s dom.Surface, selector, value string) error {
	if err := poll.Until(ctx, v.Poll, func(ctx context.Context) error {
		return s.Fill(ctx, selector, value)
	}); err != nil {
		return fmt.Errorf("fill %s: %w", selector, err)
	}
	return nil
}

// ClickSaveDialogBtn waits for the dialog save button to enable and
// clicks it.
func (v *Validator) ClickSaveDialogBtn(ctx context.Context, s dom.Surface) error {
	return v.click(ctx, s, v.SaveDialogBtn)
}

// Click waits for selector to be clickable and clicks it once.
func (v *Validator) Click(ctx context.Context, s dom.Surface, selector string) error {
	return v.click(ctx, s, selector)
}

func (v *Validator) click(ctx context.Context, s dom.Surface, selector string) error {
	if err := poll.Until(ctx, v.Poll, func(ctx context.Context) error {
		return s.Click(ctx, selector)
	}); err != nil {
		return fmt.Errorf("click %s: %w", selector, err)
	}
	return nil
}
