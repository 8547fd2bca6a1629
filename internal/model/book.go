package model

import "time"

// Book represents a catalog record as stored in the `books` table.
// A single row describes one title; the Available counter tracks how
// many physical copies can currently be borrowed. Copies of the same
// title never create additional rows; adding a copy increments
// Available on the existing record.
//
// Fields:
//  ID              – primary key identifier.
//  ISBN            – external catalog key, unique per title.
//  Title           – book title.
//  Publisher       – publishing house.
//  PublicationYear – year of publication (kept as text, catalogs vary).
//  Edition         – edition label.
//  Category        – top level classification.
//  Subcategory     – secondary classification.
//  Description     – free form description.
//  Available       – number of copies currently on the shelf, never negative.
//  Added           – timestamp the title entered the catalog.
//  Modified        – timestamp of the last catalog edit.
type Book struct {
	ID              uint64    `json:"id"`               // books.id
	ISBN            string    `json:"isbn"`             // books.isbn
	Title           string    `json:"title"`            // books.title
	Publisher       string    `json:"publisher"`        // books.publisher
	PublicationYear string    `json:"publication_year"` // books.publication_year
	Edition         string    `json:"edition"`          // books.edition
	Category        string    `json:"category"`         // books.category
	Subcategory     string    `json:"subcategory"`      // books.subcategory
	Description     string    `json:"description"`      // books.description
	Available       uint32    `json:"available"`        // books.available
	Added           time.Time `json:"added"`            // books.added
	Modified        time.Time `json:"modified"`         // books.modified
}
