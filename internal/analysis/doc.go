// Package analysis turns merged movie records into ranked rows.
//
// Feature building filters records without a positive revenue, a rating or
// a popularity, derives log10(revenue+1) and min-max normalizes rating,
// log revenue and popularity. Ranking projects the normalized features on
// their principal components and orders rows by the first component score,
// the performance index.
package analysis
