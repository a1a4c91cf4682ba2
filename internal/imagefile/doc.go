// Package imagefile classifies image containers and models directory entries.
//
// Classification is based on magic-number sniffing rather than extensions so
// a mislabelled file never reaches the wrong metadata parser. Extensions are
// only used as a cheap prefilter during directory enumeration.
package imagefile
