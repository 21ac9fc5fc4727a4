package keyspace

// applyVersionProtocol implements the central optimistic-concurrency
// contract shared by every mutation path. existingKey is the stored
// key if the target key already existed; versionIn/versionCare
// are the client-supplied parameters. It returns the key to write back
// (with version resolved and, if versionCare, already bumped) or an
// error code.
//
//	existing := find(k)
//	if existing != none:
//	    v := ES.version(existing.key)
//	    if version_care and v != 0 and v != version_in:
//	        return VERSION_ERROR
//	    ES.set_version(existing.key, version_in)
//	else:
//	    ES.set_version(k, 0)
//	if version_care:
//	    ES.add_version(existing_or_new.key, 1)
func applyVersionProtocol(key ES, existingKey ES, existed bool, versionIn uint16, versionCare bool) (ES, ReturnCode) {
	if existed {
		v := existingKey.Version()
		if versionCare && v != 0 && v != versionIn {
			return ES{}, ErrVersionError
		}
		key.SetVersion(versionIn)
	} else {
		key.SetVersion(0)
	}
	if versionCare {
		key.AddVersion(1)
	}
	return key, OK
}
