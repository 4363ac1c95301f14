package domain

//go:generate moq -out mocks/logger_mock.go -pkg mocks . Logger

// Logger provides structured and formatted logging capabilities for the domain layer.
// The interface is implementation-agnostic so production code can be backed by
// zap while unit tests use a plain text logger (see pkg/infralog).
//
//	logger.Info("user created", "userId", user.ID(), "instanceId", instanceID)
//	logger.Infof("user %s created", user.ID())
type Logger interface {
	Debug(msg string, keysAndValues ...interface{})
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	Fatal(msg string, keysAndValues ...interface{})

	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Fatalf(format string, args ...interface{})
}
