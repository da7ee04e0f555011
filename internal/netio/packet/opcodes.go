package packet

// Client → server opcodes.
const (
	C_OPCODE_LOGIN       byte = 10 // account name + password
	C_OPCODE_CHAR_CHOOSE byte = 11 // char ID
	C_OPCODE_CHAR_CREATE byte = 12 // field count, then name + tagged value pairs
	C_OPCODE_CHAR_DELETE byte = 13 // char ID
	C_OPCODE_QUIT        byte = 14
)

// Server → client opcodes.
const (
	S_OPCODE_HELLO          byte = 100 // protocol version, sent on connect
	S_OPCODE_LOGIN_OK       byte = 101
	S_OPCODE_LOGIN_FAIL     byte = 102 // reason string
	S_OPCODE_CHAR_MENU      byte = 110 // count, then char IDs
	S_OPCODE_CHAR_INFO      byte = 111 // char ID, owner, snapshot field count + pairs
	S_OPCODE_CHAR_LOADED    byte = 112 // char ID
	S_OPCODE_CHAR_LOAD_FAIL byte = 113 // reason string
	S_OPCODE_CHAR_AUTH_OK   byte = 114 // char ID + remaining ID list
	S_OPCODE_CHAR_AUTH_FAIL byte = 115 // reason code + tagged arg list
	S_OPCODE_CHAR_DELETED   byte = 116 // char ID
	S_OPCODE_CHAR_KICK      byte = 117 // 1 if the kicked char is the session's current one
	S_OPCODE_CHAR_VAR_BCAST byte = 120 // char ID, var name, tagged value (all sessions)
	S_OPCODE_CHAR_VAR       byte = 121 // char ID, var name, tagged value (one session)
	S_OPCODE_CHAR_DATA      byte = 122 // char ID, data key, tagged value (owner only)
)
