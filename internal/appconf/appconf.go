package appconf

import "fmt"

// Environment is the operating environment the binaries run in.
type Environment int

const (
	Development Environment = iota
	Test
	Production
)

func (e Environment) String() string {
	switch e {
	case Development:
		return "development"
	case Test:
		return "test"
	case Production:
		return "production"
	default:
		return "unknown"
	}
}

// EnvFlagToEnvironment converts the -env flag value into an Environment.
func EnvFlagToEnvironment(env string) (Environment, error) {
	switch env {
	case "development", "":
		return Development, nil
	case "test":
		return Test, nil
	case "production":
		return Production, nil
	default:
		return Development, fmt.Errorf("unknown environment %q (development|test|production)", env)
	}
}
