package validation

import (
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"
)

// Константы валидации
const (
	MinCoverLetterLength          = 10
	MaxCoverLetterLength          = 2000
	MaxEstimatedTimeLength        = 100
	MinJobTitleLength             = 3
	MaxJobTitleLength             = 200
	MaxProfileDescriptionLength   = 5000
	MaxLocationFieldLength        = 100
	MaxAddressLength              = 300
	MaxZipcodeLength              = 20
	MinMilestoneDescriptionLength = 10
	MaxMilestoneDescriptionLength = 1000
	MaxSkillLength                = 50
	MaxSkillsCount                = 50
	MaxHourlyRate                 = 100000.0
	MaxExternalLinkLength         = 500
	MaxFilesCount                 = 10
	MaxMilestonesCount            = 20
)

// ValidateLength проверяет длину строки в рунах.
func ValidateLength(fieldName, value string, min, max int) error {
	length := utf8.RuneCountInString(value)
	if min > 0 && length < min {
		return fmt.Errorf("%s должен быть не менее %d символов", fieldName, min)
	}
	if max > 0 && length > max {
		return fmt.Errorf("%s должен быть не более %d символов", fieldName, max)
	}
	return nil
}

// ValidateCoverLetter проверяет сопроводительное письмо отклика.
func ValidateCoverLetter(coverLetter string) error {
	if strings.TrimSpace(coverLetter) == "" {
		return fmt.Errorf("сопроводительное письмо обязательно")
	}
	return ValidateLength("сопроводительное письмо", coverLetter, MinCoverLetterLength, MaxCoverLetterLength)
}

// ValidateEstimatedTime проверяет оценку срока выполнения.
func ValidateEstimatedTime(estimatedTime string) error {
	if strings.TrimSpace(estimatedTime) == "" {
		return fmt.Errorf("оценка срока обязательна")
	}
	return ValidateLength("оценка срока", estimatedTime, 1, MaxEstimatedTimeLength)
}

// ValidateJobTitle проверяет заголовок профиля.
func ValidateJobTitle(jobTitle string) error {
	if strings.TrimSpace(jobTitle) == "" {
		return fmt.Errorf("заголовок профиля обязателен")
	}
	return ValidateLength("заголовок профиля", jobTitle, MinJobTitleLength, MaxJobTitleLength)
}

// ValidateProfileDescription проверяет описание профиля.
func ValidateProfileDescription(description string) error {
	return ValidateLength("описание профиля", description, 0, MaxProfileDescriptionLength)
}

// ValidateMilestoneDescription проверяет описание этапа.
func ValidateMilestoneDescription(description string) error {
	return ValidateLength("описание этапа", description, MinMilestoneDescriptionLength, MaxMilestoneDescriptionLength)
}

// ValidateSkills проверяет список навыков.
func ValidateSkills(skills []string) error {
	if len(skills) > MaxSkillsCount {
		return fmt.Errorf("слишком много навыков, максимум %d", MaxSkillsCount)
	}
	for _, skill := range skills {
		if strings.TrimSpace(skill) == "" {
			return fmt.Errorf("навык не может быть пустым")
		}
		if err := ValidateLength("навык", skill, 1, MaxSkillLength); err != nil {
			return err
		}
	}
	return nil
}

// ValidateHourlyRate проверяет почасовую ставку.
func ValidateHourlyRate(rate float64) error {
	if rate < 0 {
		return fmt.Errorf("почасовая ставка не может быть отрицательной")
	}
	if rate > MaxHourlyRate {
		return fmt.Errorf("почасовая ставка слишком велика")
	}
	return nil
}

// ValidateExternalLink проверяет внешнюю ссылку (портфолио и т.п.).
func ValidateExternalLink(link string) error {
	if link == "" {
		return nil
	}
	if err := ValidateLength("ссылка", link, 0, MaxExternalLinkLength); err != nil {
		return err
	}

	parsed, err := url.Parse(link)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return fmt.Errorf("ссылка должна быть валидным http(s) URL")
	}
	return nil
}
