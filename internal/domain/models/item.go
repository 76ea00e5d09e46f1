package models

// Item элемент коллекции, адресуемый по ключу идентичности
type Item interface {
	Key() string
}

// Shareable элемент, который можно отправить во внешний share-интент
type Shareable interface {
	Item
	ShareFields() (mediaURL, name string)
}
