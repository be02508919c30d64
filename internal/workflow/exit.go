package workflow

// Process exit statuses.
const (
	ExitOK           = 0
	ExitError        = 1
	ExitConnect      = 2
	ExitPublish      = 3
	ExitNotification = 4
)

// ExitCode maps a run result to its exit status. A notification failure only
// surfaces when publishing succeeded; broker failures take precedence.
func ExitCode(result Result) int {
	switch result.Report.FailedStage() {
	case "connect":
		return ExitConnect
	case "publish":
		return ExitPublish
	}
	if result.Notification.Attempted && !result.Notification.Sent {
		return ExitNotification
	}
	return ExitOK
}
