package auth

// Discovered controls are tagged with a data attribute so they can be
// addressed by a stable selector afterwards.
const (
	usernameSelector = `input[data-cardsync-field="username"]`
	passwordSelector = `input[data-cardsync-field="password"]`
	submitSelector   = `[data-cardsync-field="submit"]`
)

type fieldDiscovery struct {
	Found  bool   `json:"found"`
	Reason string `json:"reason"`
}

// discoverFieldsJS locates the visible password input and the nearest
// preceding visible text-like input. Structural inspection survives the
// portal renaming its element ids between deployments.
const discoverFieldsJS = `(() => {
	const visible = (el) => {
		const style = window.getComputedStyle(el);
		return style.display !== 'none' && style.visibility !== 'hidden' && el.offsetParent !== null;
	};
	const inputs = Array.from(document.querySelectorAll('input')).filter(visible);
	const pass = inputs.find((el) => el.type === 'password');
	if (!pass) {
		return { found: false, reason: 'no visible password input' };
	}
	const userTypes = ['text', 'email', 'tel', ''];
	const user = inputs.slice(0, inputs.indexOf(pass)).reverse()
		.find((el) => userTypes.includes(el.type));
	if (!user) {
		return { found: false, reason: 'no visible username input before password input' };
	}
	user.setAttribute('data-cardsync-field', 'username');
	pass.setAttribute('data-cardsync-field', 'password');
	return { found: true, reason: '' };
})()`

// discoverSubmitJS tags the form's visible submit control. Falls back to
// the only visible button when the form declares none.
const discoverSubmitJS = `(() => {
	const visible = (el) => {
		const style = window.getComputedStyle(el);
		return style.display !== 'none' && style.visibility !== 'hidden' && el.offsetParent !== null;
	};
	const pass = document.querySelector('input[data-cardsync-field="password"]');
	const scope = (pass && pass.form) ? pass.form : document;
	let submit = Array.from(scope.querySelectorAll('button[type="submit"], input[type="submit"]')).find(visible);
	if (!submit) {
		const buttons = Array.from(scope.querySelectorAll('button')).filter(visible);
		if (buttons.length === 1) {
			submit = buttons[0];
		}
	}
	if (!submit) {
		return { found: false, reason: 'no visible submit control' };
	}
	submit.setAttribute('data-cardsync-field', 'submit');
	return { found: true, reason: '' };
})()`

// dismissConsentJS clicks an accept button on an upfront consent or cookie
// banner when one is present. Best effort only.
const dismissConsentJS = `(() => {
	const pattern = /accept|agree|consent|אישור|הסכמה/i;
	const buttons = Array.from(document.querySelectorAll('button, [role="button"]'));
	const target = buttons.find((el) => pattern.test(el.textContent || ''));
	if (target) {
		target.click();
		return true;
	}
	return false;
})()`
