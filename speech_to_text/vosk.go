package speech_to_text
