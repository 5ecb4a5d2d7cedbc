package i18n

import "errors"

var (
	ErrTranslationLoad = errors.New("load translations")
	ErrUnknownLocale   = errors.New("unknown locale")
	ErrParseDictionary = errors.New("parse dictionary")
)
