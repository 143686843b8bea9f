package enums

type LanguageType string

const (
	LanguageTypeNative   LanguageType = "native"
	LanguageTypeLearning LanguageType = "learning"
)
