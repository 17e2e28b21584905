// Package textutil provides the text helpers shared by matching and naming.
//
// Description tokens are lowercase alphanumeric words with stop words and
// words of two characters or fewer removed. Group tokens are file-name safe
// renderings of a group key used as the base of assigned names.
package textutil
