package project

import (
	"fmt"
	"strings"
)

// validateFields checks the always-required project fields shared by create
// and edit payloads.
func validateFields(name string, lifecycle LifecycleStatus, paymentType PaymentType) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	switch lifecycle {
	case "", LifecyclePlanning, LifecycleInProgress, LifecycleReview,
		LifecycleCompleted, LifecycleOnHold, LifecycleCancelled:
	default:
		return fmt.Errorf("%w: unknown lifecycle status %q", ErrValidation, lifecycle)
	}
	switch paymentType {
	case "", PaymentCash, PaymentCharge:
	default:
		return fmt.Errorf("%w: unknown payment type %q", ErrValidation, paymentType)
	}
	return nil
}

// validateItems rejects malformed monetary inputs. Rows that are merely
// incomplete (empty description, zero quantity) are not an error; the
// reconciler drops those silently on insert.
func validateItems(items []Item) error {
	for _, item := range items {
		if item.Quantity.IsNegative() || item.UnitPrice.IsNegative() {
			return fmt.Errorf("%w: negative quantity or unit price", ErrValidation)
		}
	}
	return nil
}

func validateTasks(tasks []Task) error {
	for _, task := range tasks {
		switch task.Status {
		case "", TaskTodo, TaskInProgress, TaskDone, TaskCancelled:
		default:
			return fmt.Errorf("%w: unknown task status %q", ErrValidation, task.Status)
		}
	}
	return nil
}
