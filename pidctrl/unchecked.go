//go:build pidctrl_unchecked

package pidctrl

// Unchecked build for cycle-critical deployments: Update performs no
// finiteness validation and the caller is fully responsible for argument
// validity. Non-finite inputs corrupt the controller history.
const checkUpdateArgs = false
