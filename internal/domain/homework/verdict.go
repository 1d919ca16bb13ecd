// internal/domain/homework/verdict.go
package homework

import "fmt"

// Verdicts maps every known review status to the sentence sent to the user.
var Verdicts = map[Status]string{
	StatusApproved:  "Работа проверена: ревьюеру всё понравилось. Ура!",
	StatusReviewing: "Работа взята на проверку ревьюером.",
	StatusRejected:  "Работа проверена: у ревьюера есть замечания.",
}

// FormatStatus renders the notification text for hw.
func FormatStatus(hw Homework) (string, error) {
	if hw.Name == "" {
		return "", &ShapeError{Reason: "homework_name is missing"}
	}
	verdict, ok := Verdicts[hw.Status]
	if !ok {
		return "", &UnknownVerdictError{Status: string(hw.Status)}
	}
	return fmt.Sprintf("Status of review for \"%s\" changed. %s", hw.Name, verdict), nil
}
