// Package group manages sender-key groups on top of the pairwise channel.
//
// Creating a group mints a sender chain and distributes it to every member
// as an ordinary pairwise message carrying a tagged record; receiving such a
// record installs the receiver side. Group traffic itself fans out as signed
// sender-key envelopes, one per member, through the same relay.
package group
