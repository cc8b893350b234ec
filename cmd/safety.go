package cmd

import (
	"fmt"
	"slices"

	"github.com/spf13/viper"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/giantswarm/kube-dynamic/internal/k8s"
)

const (
	keyNonDestructive    = "non-destructive"
	keyAllowedOperations = "allowed-operations"
)

// checkMutatingOperation verifies that a mutating command may run.
//
// Operations are allowed if:
//   - non-destructive mode is disabled, OR
//   - the operation is explicitly listed in --allowed-operations
//
// Protected operations are create, update, replace, patch and delete.
func checkMutatingOperation(v *viper.Viper, operation string) error {
	if !v.GetBool(keyNonDestructive) {
		return nil
	}

	if slices.Contains(v.GetStringSlice(keyAllowedOperations), operation) {
		return nil
	}

	return fmt.Errorf("%w: %s operations are not allowed in non-destructive mode",
		k8s.ErrInvalidRequest, cases.Title(language.English).String(operation))
}
